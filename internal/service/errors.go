package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Skotchmaster/bookstore/internal/events"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrConflict     = errors.New("conflict")     // 400, duplicates and rows still referenced
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrNotFound     = errors.New("not found")    // 404
)

// Error carries a message that is safe to show to the client. Kind is one of
// the sentinels above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// publish sends ev and only logs failures; the write it describes is already committed.
func publish(ctx context.Context, pub events.Publisher, l *zerolog.Logger, topic, key string, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, key, ev); err != nil {
		l.Warn().Err(err).Str("topic", topic).Str("event", ev.Type).Msg("publish_failed")
	}
}
