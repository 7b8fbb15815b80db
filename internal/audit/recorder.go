package audit

import (
	"errors"

	"go.uber.org/zap"
)

// Recorder accepts audit events. Record must never fail the caller: routing
// and execution proceed regardless of audit health, so implementations
// swallow their own errors.
type Recorder interface {
	Record(Event)
}

// Sink persists events and may fail. Sinks must be safe for concurrent use;
// the Dispatcher calls them from whatever goroutine recorded the event.
type Sink interface {
	Record(Event) error
	Close() error
}

// Nop discards every event. Used when auditing is disabled.
type Nop struct{}

func (Nop) Record(Event) {}

// Dispatcher fans events out to its sinks and absorbs their failures. A
// sink error or panic is logged at Warn and the remaining sinks still
// receive the event.
type Dispatcher struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewDispatcher builds a dispatcher over the given sinks. A nil logger
// disables dispatcher logging.
func NewDispatcher(logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Record delivers the event to every sink.
func (d *Dispatcher) Record(ev Event) {
	for _, s := range d.sinks {
		d.deliver(s, ev)
	}
}

func (d *Dispatcher) deliver(s Sink, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("audit sink panicked",
				zap.Any("panic", r),
				zap.String("event_type", ev.Type))
		}
	}()
	if err := s.Record(ev); err != nil {
		d.logger.Warn("audit sink failed",
			zap.Error(err),
			zap.String("event_type", ev.Type),
			zap.String("event_id", ev.ID))
	}
}

// Close closes every sink and joins their errors.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
