// Package notify delivers plain-text alerts to the library staff channels.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Sink delivers one text message.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Multi fans a message out to every sink. All sinks are tried; errors are joined.
type Multi []Sink

func (m Multi) Send(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes messages to the log. Used when no channel is configured.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Send(_ context.Context, text string) error {
	s.Log.Info("[DEV] notification", "text", text)
	return nil
}
