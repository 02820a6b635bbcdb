package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/cryptox"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/accounts"
)

// MinPasswordLength is checked before an attempt counts.
const MinPasswordLength = 6

// DefaultQueryTimeout bounds each account and role lookup.
const DefaultQueryTimeout = 30 * time.Second

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RoleChecker decides whether an account may publish.
type RoleChecker interface {
	IsAdmin(ctx context.Context, accountID string) (bool, error)
}

// RepositoryRoles checks the admin role in the user_roles table.
type RepositoryRoles struct {
	Repo accounts.Repository
}

func (r RepositoryRoles) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	return r.Repo.HasRole(ctx, accountID, accounts.RoleAdmin)
}

// IdentityGate signs operators in against stored accounts and issues JWTs.
type IdentityGate struct {
	accounts accounts.Repository
	roles    RoleChecker
	secret   []byte
	ttl      time.Duration
	lockout  *Lockout
	timeout  time.Duration
	log      logging.Logger
	now      func() time.Time
}

func NewIdentityGate(repo accounts.Repository, roles RoleChecker, secretKey string, ttl time.Duration, lockout *Lockout, log logging.Logger) *IdentityGate {
	if lockout == nil {
		lockout = NewLockout(0, 0, nil)
	}
	if log == nil {
		log = logging.Nop()
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &IdentityGate{
		accounts: repo,
		roles:    roles,
		secret:   []byte(secretKey),
		ttl:      ttl,
		lockout:  lockout,
		timeout:  DefaultQueryTimeout,
		log:      log,
		now:      time.Now,
	}
}

// CheckCredentials validates the shape of c. A malformed input is not an
// attempt and does not count towards the lockout.
func CheckCredentials(c Credentials) error {
	switch {
	case c.Email == "" || c.Password == "":
		return common.NewValidationError(common.ReasonInvalidEntry, "email and password are required")
	case !emailPattern.MatchString(c.Email):
		return common.NewValidationError(common.ReasonInvalidEntry, "email is not valid")
	case len(c.Password) < MinPasswordLength:
		return common.NewValidationError(common.ReasonInvalidEntry, "password is too short")
	}
	return nil
}

func (g *IdentityGate) Login(ctx context.Context, c Credentials) (Session, error) {
	if err := g.lockout.Check(); err != nil {
		return Session{}, err
	}
	if err := CheckCredentials(c); err != nil {
		return Session{}, err
	}

	qctx, cancel := g.bounded(ctx)
	acc, err := g.accounts.GetByEmail(qctx, c.Email)
	cancel()
	switch {
	case errors.Is(err, common.ErrNotFound):
		return Session{}, g.fail(ctx)
	case err != nil:
		return Session{}, fmt.Errorf("load account: %w", err)
	}
	if !cryptox.CheckPassword([]byte(c.Password), acc.Salt, acc.Verifier) {
		return Session{}, g.fail(ctx)
	}
	g.lockout.Succeed()

	admin, err := g.isAdmin(ctx, acc.ID)
	if err != nil {
		return Session{}, err
	}
	if !admin {
		g.log.Warn(ctx, "login without admin role", "account_id", acc.ID)
		return Session{}, fmt.Errorf("account has no admin access: %w", common.ErrUnauthorized)
	}

	expires := g.now().Add(g.ttl)
	token, err := generateToken(acc.ID, g.secret, expires)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	g.log.Info(ctx, "login succeeded", "account_id", acc.ID)
	return Session{AccountID: acc.ID, Token: token, Admin: true, ExpiresAt: expires}, nil
}

func (g *IdentityGate) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

func (g *IdentityGate) isAdmin(ctx context.Context, accountID string) (bool, error) {
	ctx, cancel := g.bounded(ctx)
	defer cancel()
	admin, err := g.roles.IsAdmin(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("role check: %w", err)
	}
	return admin, nil
}

func (g *IdentityGate) fail(ctx context.Context) error {
	if err := g.lockout.Fail(); err != nil {
		g.log.Warn(ctx, "too many failed logins, locking", "failures", g.lockout.Failures())
		return err
	}
	g.log.Info(ctx, "login failed", "failures", g.lockout.Failures())
	return fmt.Errorf("incorrect credentials: %w", common.ErrUnauthorized)
}

// Verify parses token and repeats the role check.
func (g *IdentityGate) Verify(ctx context.Context, token string) (Session, error) {
	claims, err := parseToken(token, g.secret)
	if err != nil {
		return Session{}, err
	}
	admin, err := g.isAdmin(ctx, claims.AccountID)
	if err != nil {
		return Session{}, err
	}
	s := Session{AccountID: claims.AccountID, Token: token, Admin: admin}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := s.Authorize(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// WithAccounts returns a copy of g bound to repo, typically a repository
// over a transaction.
func (g *IdentityGate) WithAccounts(repo accounts.Repository) *IdentityGate {
	cp := *g
	cp.accounts = repo
	return &cp
}

// WithTimeout returns a copy of g whose lookups give up after d.
func (g *IdentityGate) WithTimeout(d time.Duration) *IdentityGate {
	cp := *g
	if d > 0 {
		cp.timeout = d
	}
	return &cp
}

// Enroll creates an account for email, granting the admin role when admin
// is set.
func (g *IdentityGate) Enroll(ctx context.Context, c Credentials, admin bool) (*accounts.Account, error) {
	if err := CheckCredentials(c); err != nil {
		return nil, err
	}
	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, err
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()
	acc, err := g.accounts.Create(ctx, &accounts.Account{
		Email:    c.Email,
		Salt:     salt,
		Verifier: cryptox.MakeVerifier(cryptox.DeriveKey([]byte(c.Password), salt)),
	})
	if err != nil {
		return nil, err
	}
	if admin {
		if err := g.accounts.GrantRole(ctx, acc.ID, accounts.RoleAdmin); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
