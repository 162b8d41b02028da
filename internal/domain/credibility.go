package domain

import "time"

// CredibilityHistory es una fila append-only del ledger de credibilidad.
type CredibilityHistory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Score     float64   `json:"score"`
	Change    float64   `json:"change"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ReasonAccountCreation = "Account creation"
	// ChallengeCredibilityDelta es lo que gana el ganador y pierde el perdedor de un challenge.
	ChallengeCredibilityDelta = 5.0
)
