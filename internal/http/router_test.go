package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"signal-net/internal/domain"
	"signal-net/internal/metrics"
	"signal-net/internal/repository/memstore"
	"signal-net/internal/service"
)

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
}

func setupRouter(t *testing.T, health HealthCheck) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	store := memstore.New()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)
	jwtSvc := service.NewJWTService("secret", time.Hour, clockwork.NewRealClock())

	users := service.NewUserService(logger, store, clock)
	cred := service.NewCredibilityService(logger, store, clock)
	signals := service.NewSignalService(logger, store, clock, nil, service.DefaultMinSignalCredibility)
	convictions := service.NewConvictionService(logger, store, clock, nil, recorder, nil)
	challenges := service.NewChallengeService(logger, store, clock, nil, recorder)

	r := NewRouter(logger, RouterDeps{
		JWT:            jwtSvc,
		Users:          NewUserHandler(logger, users, jwtSvc, recorder),
		Credibility:    NewCredibilityHandler(logger, cred, recorder),
		Signals:        NewSignalHandler(logger, signals, convictions, recorder),
		Challenges:     NewChallengeHandler(logger, challenges, recorder),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:         health,
	})
	return testServer{router: r, store: store}
}

func performRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type registered struct {
	ID    string
	Token string
}

func register(t *testing.T, r http.Handler, handle string) registered {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/users", map[string]string{
		"handle":   handle,
		"email":    handle + "@example.com",
		"name":     handle,
		"password": "secret123",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", handle, rec.Code, rec.Body.String())
	}
	var resp struct {
		User  domain.User          `json:"user"`
		Token service.AccessToken `json:"token"`
	}
	decode(t, rec, &resp)
	return registered{ID: resp.User.ID, Token: resp.Token.AccessToken}
}

func createSignal(t *testing.T, r http.Handler, token string) domain.Signal {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/signals", map[string]string{
		"content":  "Rates are cut before Q3",
		"category": "macro",
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create signal: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Signal domain.Signal `json:"signal"`
	}
	decode(t, rec, &resp)
	return resp.Signal
}

func TestRouter_ConvictionFlow(t *testing.T) {
	srv := setupRouter(t, nil)
	alice := register(t, srv.router, "alice")
	bob := register(t, srv.router, "bob")
	signal := createSignal(t, srv.router, alice.Token)

	rec := performRequest(srv.router, http.MethodGet, "/signals/"+signal.ID+"/conviction", nil, bob.Token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before conviction, got %d", rec.Code)
	}

	rec = performRequest(srv.router, http.MethodPost, "/signals/"+signal.ID+"/conviction", map[string]float64{"value": 50}, bob.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(srv.router, http.MethodGet, "/signals/"+signal.ID, nil, "")
	var resp struct {
		Signal domain.Signal `json:"signal"`
	}
	decode(t, rec, &resp)
	if resp.Signal.Consensus != 75 || resp.Signal.ParticipantCount != 1 {
		t.Fatalf("unexpected signal aggregates: %+v", resp.Signal)
	}

	rec = performRequest(srv.router, http.MethodGet, "/signals/"+signal.ID+"/conviction", nil, bob.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = performRequest(srv.router, http.MethodGet, "/metrics", nil, "")
	if !strings.Contains(rec.Body.String(), `signalnet_convictions_total{outcome="created"} 1`) {
		t.Fatalf("expected conviction counter in metrics, got:\n%s", rec.Body.String())
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	srv := setupRouter(t, nil)
	alice := register(t, srv.router, "alice")
	bob := register(t, srv.router, "bob")
	signal := createSignal(t, srv.router, alice.Token)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		token  string
		want   int
	}{
		{"no token", http.MethodPost, "/signals/" + signal.ID + "/conviction", map[string]float64{"value": 10}, "", http.StatusUnauthorized},
		{"missing value", http.MethodPost, "/signals/" + signal.ID + "/conviction", map[string]string{}, bob.Token, http.StatusBadRequest},
		{"out of range", http.MethodPost, "/signals/" + signal.ID + "/conviction", map[string]float64{"value": 150}, bob.Token, http.StatusBadRequest},
		{"unknown signal", http.MethodPost, "/signals/nope/conviction", map[string]float64{"value": 10}, bob.Token, http.StatusNotFound},
		{"overdraft stake", http.MethodPost, "/signals/" + signal.ID + "/challenge", map[string]int{"stake_amount": 100}, bob.Token, http.StatusCreated},
		{"no points left", http.MethodPost, "/signals/" + signal.ID + "/challenge", map[string]int{"stake_amount": 1}, bob.Token, http.StatusPaymentRequired},
		{"not author", http.MethodPost, "/signals/" + signal.ID + "/resolve", map[string]float64{"value": 100}, bob.Token, http.StatusForbidden},
		{"duplicate user", http.MethodPost, "/users", map[string]string{"handle": "alice", "email": "x@example.com", "name": "x", "password": "secret123"}, "", http.StatusConflict},
		{"unknown challenge", http.MethodGet, "/challenges/nope", nil, "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(srv.router, tc.method, tc.path, tc.body, tc.token)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}

	rec := performRequest(srv.router, http.MethodPost, "/signals/"+signal.ID+"/resolve", map[string]float64{"value": 100}, alice.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d", rec.Code)
	}
	rec = performRequest(srv.router, http.MethodPost, "/signals/"+signal.ID+"/conviction", map[string]float64{"value": 10}, bob.Token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on resolved signal, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] != "cannot convict a resolved signal" || body["kind"] != string(domain.KindInvalidState) {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestRouter_ChallengeFlow(t *testing.T) {
	srv := setupRouter(t, nil)
	alice := register(t, srv.router, "alice")
	bob := register(t, srv.router, "bob")
	signal := createSignal(t, srv.router, alice.Token)

	rec := performRequest(srv.router, http.MethodPost, "/signals/"+signal.ID+"/challenge", map[string]any{"target_id": bob.ID, "stake_amount": 20}, alice.Token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create challenge: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Challenge domain.Challenge `json:"challenge"`
	}
	decode(t, rec, &resp)
	id := resp.Challenge.ID

	rec = performRequest(srv.router, http.MethodPost, "/challenges/"+id+"/accept", nil, alice.Token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self accept: expected 400, got %d", rec.Code)
	}
	rec = performRequest(srv.router, http.MethodPost, "/challenges/"+id+"/accept", nil, bob.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = performRequest(srv.router, http.MethodPost, "/challenges/"+id+"/resolve", map[string]string{"winner_id": bob.ID}, alice.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(srv.router, http.MethodGet, "/credibility/users/"+bob.ID, nil, "")
	var score struct {
		Score service.UserScore `json:"score"`
	}
	decode(t, rec, &score)
	if score.Score.CredibilityScore != 55 || score.Score.Rank != 1 {
		t.Fatalf("unexpected winner score: %+v", score.Score)
	}

	rec = performRequest(srv.router, http.MethodGet, "/credibility/users/"+alice.ID+"/history", nil, "")
	var history struct {
		History []domain.CredibilityHistory `json:"history"`
	}
	decode(t, rec, &history)
	if len(history.History) != 2 || history.History[0].Reason != "Lost challenge #"+id {
		t.Fatalf("unexpected history: %+v", history.History)
	}

	rec = performRequest(srv.router, http.MethodGet, "/credibility/leaderboard?limit=1", nil, "")
	var board struct {
		Leaderboard []domain.RankedUser `json:"leaderboard"`
	}
	decode(t, rec, &board)
	if len(board.Leaderboard) != 1 || board.Leaderboard[0].ID != bob.ID {
		t.Fatalf("unexpected leaderboard: %+v", board.Leaderboard)
	}
}

func TestRouter_LoginAndProfile(t *testing.T) {
	srv := setupRouter(t, nil)
	alice := register(t, srv.router, "alice")

	rec := performRequest(srv.router, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "wrong-pass"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = performRequest(srv.router, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "secret123"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(srv.router, http.MethodGet, "/users/"+alice.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "alice@example.com") {
		t.Fatalf("public profile must not expose email: %s", rec.Body.String())
	}

	rec = performRequest(srv.router, http.MethodGet, "/auth/me", nil, alice.Token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alice@example.com") {
		t.Fatalf("unexpected /auth/me response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	srv := setupRouter(t, nil)
	if rec := performRequest(srv.router, http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	down := setupRouter(t, func(context.Context) error { return errors.New("db down") })
	if rec := performRequest(down.router, http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
