package events

import (
	"context"
	"time"
)

const (
	TypeConvictionRecorded = "conviction.recorded"
	TypeChallengeCreated   = "challenge.created"
	TypeChallengeAccepted  = "challenge.accepted"
	TypeChallengeResolved  = "challenge.resolved"
	TypeSignalResolved     = "signal.resolved"
)

// Event es un hecho de dominio ya confirmado en la base. Key agrupa por senal.
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Publisher entrega eventos a consumidores externos (notificaciones, analytics).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher descarta todo; se usa cuando no hay brokers configurados.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
