package publisher

import (
	"context"
	"errors"
	"fmt"

	"feed_ingestor/internal/domain"
)

// Fanout delivers each article to every configured sink.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	cp := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		cp = append(cp, s)
	}
	return &Fanout{sinks: cp}
}

// Publish tries every sink and joins the failures.
func (f *Fanout) Publish(ctx context.Context, article *domain.Article) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, article); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Size() int {
	return len(f.sinks)
}
