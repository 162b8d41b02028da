package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"signal-net/internal/events"
)

const publishTimeout = 2 * time.Second

// publishEvent entrega un evento ya confirmado. Un fallo se loguea y no afecta la operacion.
func publishEvent(ctx context.Context, logger *zap.Logger, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed",
			zap.String("type", event.Type),
			zap.String("key", event.Key),
			zap.Error(err),
		)
	}
}
