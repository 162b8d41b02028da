package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestConvictionWeight(t *testing.T) {
	cases := []struct {
		credibility float64
		want        float64
	}{
		{80, 0.8},
		{100, 1},
		{250, 2.5},
		{10, 0.1},
		{5, MinConvictionWeight},
		{-40, MinConvictionWeight},
	}
	for _, tc := range cases {
		if got := ConvictionWeight(tc.credibility); got != tc.want {
			t.Fatalf("ConvictionWeight(%v) = %v, want %v", tc.credibility, got, tc.want)
		}
	}
}

func TestValidConvictionValue(t *testing.T) {
	for _, v := range []float64{-100, 0, 42.5, 100} {
		if !ValidConvictionValue(v) {
			t.Fatalf("expected %v valid", v)
		}
	}
	for _, v := range []float64{-100.01, 100.01, 1e9} {
		if ValidConvictionValue(v) {
			t.Fatalf("expected %v invalid", v)
		}
	}
}

func TestChallengeHelpers(t *testing.T) {
	open := Challenge{ChallengerID: "a", StakeAmount: 20}
	if !open.IsOpen() || open.IsParticipant("") || open.Pot() != 40 {
		t.Fatalf("unexpected open challenge helpers: %+v", open)
	}
	bound := Challenge{ChallengerID: "a", TargetID: "b"}
	if !bound.IsParticipant("a") || !bound.IsParticipant("b") || bound.IsParticipant("c") {
		t.Fatalf("unexpected participants")
	}
	if bound.Opponent("a") != "b" || bound.Opponent("b") != "a" {
		t.Fatalf("unexpected opponents")
	}
	if ValidStake(0) || !ValidStake(1) || !ValidStake(100) || ValidStake(101) {
		t.Fatalf("unexpected stake bounds")
	}
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("signal not found"))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected kind match")
	}
	if !errors.Is(err, NotFound("signal not found")) {
		t.Fatalf("expected exact match")
	}
	if errors.Is(err, NotFound("user not found")) {
		t.Fatalf("different message must not match")
	}
	if errors.Is(err, ErrInvalidState) {
		t.Fatalf("different kind must not match")
	}
	if KindOf(err) != KindNotFound || KindOf(errors.New("boom")) != "" {
		t.Fatalf("unexpected KindOf")
	}
}

func TestSignalIsResolved(t *testing.T) {
	var s Signal
	if s.IsResolved() {
		t.Fatalf("zero signal must be open")
	}
}
