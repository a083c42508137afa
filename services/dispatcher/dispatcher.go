package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/openrelay/hookstack/interfaces"
	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/logger"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/internal/tracing"
	"github.com/openrelay/hookstack/internal/utils"
)

// Dispatcher hands canonical events to the processing sink on a
// detached goroutine and returns before processing completes. The HTTP
// ack never waits on the sink; failures exist only in logs and spans.
type Dispatcher struct {
	sink  interfaces.ProcessingSink
	dedup interfaces.IdempotencyStore
	log   logger.Logger

	inFlight sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
	deduped   atomic.Int64
}

type Stats struct {
	Processed int64
	Failed    int64
	Deduped   int64
}

// NewDispatcher wires the dispatcher to its sink. dedup may be nil, in
// which case redeliveries from a provider are processed again.
func NewDispatcher(sink interfaces.ProcessingSink, dedup interfaces.IdempotencyStore, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sink:  sink,
		dedup: dedup,
		log:   log,
	}
}

// Dispatch schedules event for background processing and returns
// immediately. The background task runs on a fresh context so a client
// disconnect on the HTTP side cannot cancel it; the provider, not the
// original caller, is the client of record.
func (d *Dispatcher) Dispatch(ctx context.Context, event *models.InboundEvent) {
	requestID := utils.GetRequestIDFromContext(ctx)

	d.inFlight.Add(1)
	go func() {
		defer d.inFlight.Done()
		defer tracing.RecoverAndLogToJaeger(d.log)

		taskCtx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
			AppSource: utils.GetAppSourceFromContext(ctx),
			RequestID: requestID,
			UserID:    event.EntityID(),
		})
		d.process(taskCtx, event, requestID)
	}()
}

func (d *Dispatcher) process(ctx context.Context, event *models.InboundEvent, requestID string) {
	span, ctx := tracing.StartTracerSpan(ctx, "Dispatcher.process")
	defer span.Finish()
	tracing.SetDefaultDispatcherSpanTags(ctx, span)
	tracing.TagProvider(span, event.SourceProvider.String())
	tracing.TagEntity(span, event.EntityID())

	if d.dedup != nil {
		if key := event.DedupKey(); key != "" {
			first, err := d.dedup.CheckAndSet(ctx, key)
			if err != nil {
				// A broken dedup store must not drop events; process anyway.
				tracing.TraceErr(span, err)
				d.log.Warnf("idempotency check failed for %s, processing without dedup: %v", key, err)
			} else if !first {
				d.deduped.Add(1)
				tracing.TagDispatchOutcome(span, enum.DispatchDeduped.String())
				d.log.Infof("suppressed duplicate event %s (key %s, request %s)", event.ID, key, requestID)
				return
			}
		}
	}

	if err := d.sink.Process(ctx, event); err != nil {
		d.failed.Add(1)
		tracing.TagDispatchOutcome(span, enum.DispatchFailed.String())
		tracing.TraceErr(span, errors.Wrap(err, "processing sink failed"))
		d.log.Errorf("background processing failed: provider=%s event=%s request=%s entity=%s: %v",
			event.SourceProvider, event.ID, requestID, event.EntityID(), err)
		return
	}

	d.processed.Add(1)
	tracing.TagDispatchOutcome(span, enum.DispatchProcessed.String())
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Processed: d.processed.Load(),
		Failed:    d.failed.Load(),
		Deduped:   d.deduped.Load(),
	}
}

// Drain waits for in-flight background tasks to finish, up to timeout.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
