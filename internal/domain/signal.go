package domain

import "time"

// DefaultConsensus es el consenso publicado antes de la primera conviccion.
const DefaultConsensus = 50.0

// Signal es una prediccion publicada por un usuario. Consensus y Momentum
// solo los escriben el agregador y el job de momentum.
type Signal struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Content          string     `json:"content"`
	Topic            string     `json:"topic,omitempty"`
	Category         string     `json:"category"`
	Timeframe        string     `json:"timeframe,omitempty"`
	Consensus        float64    `json:"consensus"`
	Momentum         float64    `json:"momentum"`
	ParticipantCount int        `json:"participant_count"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedValue    *float64   `json:"resolved_value,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsResolved indica si la senal ya es inmutable.
func (s Signal) IsResolved() bool {
	return s.ResolvedAt != nil
}
