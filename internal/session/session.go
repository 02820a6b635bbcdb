// Package session authenticates operators before any backend is built.
//
// Two gate forms exist: a shared secret held by the process and an identity
// form backed by the accounts table with a role check. Both share the same
// lockout policy.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
)

// Credentials are what the operator types. The shared-secret form ignores
// Email.
type Credentials struct {
	Email    string
	Password string
}

// Session is an authenticated operator. Backends receive it explicitly at
// construction.
type Session struct {
	AccountID string
	Token     string
	Admin     bool
	// ExpiresAt is zero for sessions that last as long as the process.
	ExpiresAt time.Time
}

// Authorize fails with common.ErrUnauthorized unless s may publish.
func (s Session) Authorize() error {
	switch {
	case s.Token == "":
		return fmt.Errorf("no active session: %w", common.ErrUnauthorized)
	case !s.Admin:
		return fmt.Errorf("account %s is not an administrator: %w", s.AccountID, common.ErrUnauthorized)
	case !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt):
		return fmt.Errorf("session expired: %w", common.ErrUnauthorized)
	}
	return nil
}

// Gate issues and re-checks sessions.
type Gate interface {
	Login(ctx context.Context, c Credentials) (Session, error)
	Verify(ctx context.Context, token string) (Session, error)
}
