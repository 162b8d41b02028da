package domain

import "time"

type ChallengeStatus string

const (
	ChallengePending  ChallengeStatus = "PENDING"
	ChallengeAccepted ChallengeStatus = "ACCEPTED"
	ChallengeResolved ChallengeStatus = "RESOLVED"
)

const (
	MinStakeAmount = 1
	MaxStakeAmount = 100
)

// Challenge es una apuesta entre dos usuarios sobre una senal.
// TargetID queda vacio mientras un challenge abierto no sea aceptado.
type Challenge struct {
	ID           string          `json:"id"`
	SignalID     string          `json:"signal_id"`
	ChallengerID string          `json:"challenger_id"`
	TargetID     string          `json:"target_id,omitempty"`
	WinnerID     string          `json:"winner_id,omitempty"`
	StakeAmount  int             `json:"stake_amount"`
	Status       ChallengeStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
}

// IsOpen indica si cualquier usuario (salvo el retador) puede aceptarlo.
func (c Challenge) IsOpen() bool {
	return c.TargetID == ""
}

// IsParticipant indica si userID es el retador o el rival ya vinculado.
func (c Challenge) IsParticipant(userID string) bool {
	return userID != "" && (userID == c.ChallengerID || userID == c.TargetID)
}

// Opponent devuelve el otro participante.
func (c Challenge) Opponent(userID string) string {
	if userID == c.ChallengerID {
		return c.TargetID
	}
	return c.ChallengerID
}

// Pot es el premio completo que se lleva el ganador.
func (c Challenge) Pot() int {
	return c.StakeAmount * 2
}

// ValidStake indica si amount esta en [1, 100].
func ValidStake(amount int) bool {
	return amount >= MinStakeAmount && amount <= MaxStakeAmount
}
