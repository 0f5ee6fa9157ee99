package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// NamedSink labels a sink for error reporting.
type NamedSink struct {
	Name string
	Sink ports.ProductEventSink
}

// FanoutSink writes every event to each of its sinks in order. A failing sink
// does not stop the others; all failures are joined into the returned error.
type FanoutSink struct {
	sinks []NamedSink
}

func NewFanoutSink(sinks ...NamedSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (f *FanoutSink) Write(ctx context.Context, event domain.ProductEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Sink.Write(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
