package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/cryptox"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
)

// SecretGate checks a single shared password. Issued tokens live in memory
// for the lifetime of the process.
type SecretGate struct {
	salt     []byte
	verifier []byte
	lockout  *Lockout
	log      logging.Logger

	mu     sync.Mutex
	tokens map[string]Session
}

// NewSecretGate derives the verifier for secret. The secret itself is not
// kept.
func NewSecretGate(secret string, lockout *Lockout, log logging.Logger) (*SecretGate, error) {
	if secret == "" {
		return nil, fmt.Errorf("shared secret is empty")
	}
	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if lockout == nil {
		lockout = NewLockout(0, 0, nil)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &SecretGate{
		salt:     salt,
		verifier: cryptox.MakeVerifier(cryptox.DeriveKey([]byte(secret), salt)),
		lockout:  lockout,
		log:      log,
		tokens:   map[string]Session{},
	}, nil
}

func (g *SecretGate) Login(ctx context.Context, c Credentials) (Session, error) {
	if err := g.lockout.Check(); err != nil {
		g.log.Warn(ctx, "login rejected while locked")
		return Session{}, err
	}

	if !cryptox.CheckPassword([]byte(c.Password), g.salt, g.verifier) {
		if err := g.lockout.Fail(); err != nil {
			g.log.Warn(ctx, "too many failed logins, locking", "failures", g.lockout.Failures())
			return Session{}, err
		}
		g.log.Info(ctx, "login failed", "failures", g.lockout.Failures())
		return Session{}, fmt.Errorf("incorrect password: %w", common.ErrUnauthorized)
	}

	g.lockout.Succeed()
	s := Session{AccountID: "operator", Token: uuid.NewString(), Admin: true}

	g.mu.Lock()
	g.tokens[s.Token] = s
	g.mu.Unlock()

	g.log.Info(ctx, "login succeeded")
	return s, nil
}

func (g *SecretGate) Verify(ctx context.Context, token string) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.tokens[token]
	if !ok {
		return Session{}, fmt.Errorf("unknown session: %w", common.ErrUnauthorized)
	}
	return s, nil
}

// Logout forgets token.
func (g *SecretGate) Logout(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.tokens, token)
}
