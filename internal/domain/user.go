package domain

import "time"

const (
	// InitialCredibility es el puntaje con el que arranca toda cuenta nueva.
	InitialCredibility = 50.0
	// InitialDailyPoints es el saldo de puntos apostables de una cuenta nueva.
	InitialDailyPoints = 100
)

type User struct {
	ID               string     `json:"id"`
	Handle           string     `json:"handle"`
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	PasswordHash     string     `json:"-"`
	CredibilityScore float64    `json:"credibility_score"`
	DailyPoints      int        `json:"daily_points"`
	Accuracy         float64    `json:"accuracy"`
	Streak           int        `json:"streak"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

// RankedUser es una fila del leaderboard de credibilidad.
type RankedUser struct {
	Rank             int     `json:"rank"`
	ID               string  `json:"id"`
	Handle           string  `json:"handle"`
	Name             string  `json:"name,omitempty"`
	CredibilityScore float64 `json:"credibility_score"`
	Accuracy         float64 `json:"accuracy"`
	Streak           int     `json:"streak"`
}
