// Package telegram wraps the MTProto client behind small interfaces so
// the linking flow can be driven against test doubles.
package telegram

import (
	"context"
	"errors"
)

// ErrSecondFactorRequired is returned by Conn.SignIn when the account
// has two-factor auth enabled and a password sign-in must follow.
var ErrSecondFactorRequired = errors.New("second factor required")

// Conn is a live, exclusively-owned connection to the provider. One
// linking attempt owns one Conn; Close must be called on every exit
// path that abandons the attempt.
type Conn interface {
	// Authorized reports whether this connection already represents a
	// signed-in account.
	Authorized(ctx context.Context) (bool, error)

	// SendCode asks the provider to deliver a one-time code to phone and
	// returns the correlation token (phone code hash) scoped to this
	// request.
	SendCode(ctx context.Context, phone string) (codeHash string, err error)

	// SignIn attempts code sign-in. Returns ErrSecondFactorRequired when
	// a password step must follow on the same connection.
	SignIn(ctx context.Context, phone, code, codeHash string) error

	// SignInWithPassword completes a two-factor sign-in.
	SignInWithPassword(ctx context.Context, password string) error

	// SessionBlob exports the durable session credential after a
	// successful sign-in. The blob is sensitive and must never be logged.
	SessionBlob(ctx context.Context) (string, error)

	Close() error
}

// Dialer opens fresh anonymous provider connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}
