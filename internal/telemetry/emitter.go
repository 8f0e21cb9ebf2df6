// Package telemetry emits best-effort auth flow events to OTel logs and Kafka.
package telemetry

import (
	"context"

	"github.com/moaaz-s/7awel-auth-core/internal/telemetry/domain"
)

// EventEmitter emits telemetry events (e.g. to OTel Logs or Kafka). Best-effort;
// callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// MultiEmitter fans one event out to several emitters; the first error wins but
// all emitters are attempted.
type MultiEmitter []EventEmitter

// Emit sends the event to every emitter in order.
func (m MultiEmitter) Emit(ctx context.Context, event *domain.Event) error {
	var first error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
