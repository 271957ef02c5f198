package audit

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

// Recorder is the fire-and-forget audit sink. Implementations must never
// surface failures to the caller; a lost audit entry must not roll back a
// reservation.
type Recorder interface {
	Record(ctx context.Context, ev domain.AuditEvent)
}

const stream = "lending.audit"

// RedisRecorder appends events to a Redis stream.
type RedisRecorder struct {
	client *redis.Client
	logger *log.Logger
}

func NewRedisRecorder(client *redis.Client, logger *log.Logger) *RedisRecorder {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisRecorder{client: client, logger: logger}
}

func (r *RedisRecorder) Record(ctx context.Context, ev domain.AuditEvent) {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"kind":        ev.Kind,
			"loan_id":     ev.LoanID,
			"item_id":     ev.ItemID,
			"asset_id":    ev.AssetID,
			"actor":       ev.Actor,
			"detail":      ev.Detail,
			"occurred_at": ev.OccurredAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		},
	}).Err()
	if err != nil {
		r.logger.Printf("WARN: audit record dropped kind=%s loan=%s: %v", ev.Kind, ev.LoanID, err)
	}
}

// NopRecorder discards every event. Used in tests and when no Redis address
// is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, domain.AuditEvent) {}
