package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/accounts"
)

type memAccounts struct {
	byEmail map[string]*accounts.Account
	roles   map[string]map[string]bool
	err     error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byEmail: map[string]*accounts.Account{}, roles: map[string]map[string]bool{}}
}

func (m *memAccounts) Create(ctx context.Context, a *accounts.Account) (*accounts.Account, error) {
	if a.ID == "" {
		a.ID = "acc-" + a.Email
	}
	a.Email = strings.ToLower(a.Email)
	m.byEmail[a.Email] = a
	return a, nil
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) GrantRole(ctx context.Context, id, role string) error {
	if m.roles[id] == nil {
		m.roles[id] = map[string]bool{}
	}
	m.roles[id][role] = true
	return nil
}

func (m *memAccounts) HasRole(ctx context.Context, id, role string) (bool, error) {
	return m.roles[id][role], nil
}

func newIdentity(t *testing.T) (*IdentityGate, *memAccounts, *fakeClock) {
	t.Helper()
	repo := newMemAccounts()
	clock := newClock()
	g := NewIdentityGate(repo, RepositoryRoles{Repo: repo}, "secretKey", time.Hour, NewLockout(5, 5*time.Minute, clock.Now), nil)
	return g, repo, clock
}

func TestCheckCredentials(t *testing.T) {
	tests := []struct {
		name string
		c    Credentials
		ok   bool
	}{
		{"valid", Credentials{Email: "ana@example.com", Password: "123456"}, true},
		{"missing email", Credentials{Password: "123456"}, false},
		{"bad email", Credentials{Email: "ana@example", Password: "123456"}, false},
		{"short password", Credentials{Email: "ana@example.com", Password: "12345"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckCredentials(tc.c)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrValidation)
			}
		})
	}
}

func TestIdentityGate_AdminLoginAndVerify(t *testing.T) {
	g, _, _ := newIdentity(t)
	ctx := context.Background()
	creds := Credentials{Email: "ana@example.com", Password: "s3cret!"}

	acc, err := g.Enroll(ctx, creds, true)
	require.NoError(t, err)

	s, err := g.Login(ctx, Credentials{Email: "ANA@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, acc.ID, s.AccountID)
	assert.True(t, s.Admin)
	assert.False(t, s.ExpiresAt.IsZero())

	v, err := g.Verify(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, v.AccountID)
}

func TestIdentityGate_NonAdminIsUnauthorized(t *testing.T) {
	g, _, _ := newIdentity(t)
	ctx := context.Background()
	creds := Credentials{Email: "bob@example.com", Password: "s3cret!"}

	_, err := g.Enroll(ctx, creds, false)
	require.NoError(t, err)

	_, err = g.Login(ctx, creds)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, 0, g.lockout.Failures(), "sign-in itself succeeded")
}

func TestIdentityGate_MalformedInputDoesNotCount(t *testing.T) {
	g, _, _ := newIdentity(t)

	for i := 0; i < 10; i++ {
		_, err := g.Login(context.Background(), Credentials{Email: "nope", Password: "x"})
		require.ErrorIs(t, err, common.ErrValidation)
	}
	assert.Equal(t, 0, g.lockout.Failures())
}

func TestIdentityGate_UnknownAccountAndWrongPasswordCount(t *testing.T) {
	g, _, _ := newIdentity(t)
	ctx := context.Background()
	_, err := g.Enroll(ctx, Credentials{Email: "ana@example.com", Password: "s3cret!"}, true)
	require.NoError(t, err)

	_, err = g.Login(ctx, Credentials{Email: "ghost@example.com", Password: "s3cret!"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = g.Login(ctx, Credentials{Email: "ana@example.com", Password: "wrong!!"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	assert.Equal(t, 2, g.lockout.Failures())
}

func TestIdentityGate_Lockout(t *testing.T) {
	g, _, clock := newIdentity(t)
	ctx := context.Background()
	creds := Credentials{Email: "ana@example.com", Password: "s3cret!"}
	_, err := g.Enroll(ctx, creds, true)
	require.NoError(t, err)

	bad := Credentials{Email: "ana@example.com", Password: "wrong!!"}
	for i := 0; i < 5; i++ {
		_, err = g.Login(ctx, bad)
	}
	require.ErrorIs(t, err, common.ErrLocked)

	_, err = g.Login(ctx, creds)
	assert.ErrorIs(t, err, common.ErrLocked)

	clock.Advance(5 * time.Minute)
	_, err = g.Login(ctx, creds)
	require.NoError(t, err)
}

func TestIdentityGate_RepositoryError(t *testing.T) {
	g, repo, _ := newIdentity(t)
	repo.err = errors.New("db down")

	_, err := g.Login(context.Background(), Credentials{Email: "ana@example.com", Password: "s3cret!"})
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 0, g.lockout.Failures())
}

func TestIdentityGate_VerifyRejects(t *testing.T) {
	g, _, _ := newIdentity(t)
	ctx := context.Background()

	_, err := g.Verify(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	expired, err := generateToken("acc-1", []byte("secretKey"), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = g.Verify(ctx, expired)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	forged, err := generateToken("acc-1", []byte("other"), time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = g.Verify(ctx, forged)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestSession_Authorize(t *testing.T) {
	assert.ErrorIs(t, Session{}.Authorize(), common.ErrUnauthorized)
	assert.ErrorIs(t, Session{Token: "t"}.Authorize(), common.ErrUnauthorized)
	assert.ErrorIs(t, Session{Token: "t", Admin: true, ExpiresAt: time.Now().Add(-time.Second)}.Authorize(), common.ErrUnauthorized)
	assert.NoError(t, Session{Token: "t", Admin: true}.Authorize())
}

// stalledAccounts holds every lookup until the caller gives up.
type stalledAccounts struct{ *memAccounts }

func (s stalledAccounts) GetByEmail(ctx context.Context, _ string) (*accounts.Account, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s stalledAccounts) HasRole(ctx context.Context, _, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestIdentityGate_LookupsHaveDeadline(t *testing.T) {
	repo := stalledAccounts{newMemAccounts()}
	g := NewIdentityGate(repo, RepositoryRoles{Repo: repo}, "secretKey", time.Hour, nil, nil).
		WithTimeout(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	_, err := g.Login(ctx, Credentials{Email: "ana@example.com", Password: "s3cret!"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, g.lockout.Failures())

	token, err := generateToken("acc-1", []byte("secretKey"), time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = g.Verify(ctx, token)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIdentityGate_WithTimeoutKeepsDefaultForZero(t *testing.T) {
	g, _, _ := newIdentity(t)
	assert.Equal(t, DefaultQueryTimeout, g.WithTimeout(0).timeout)
	assert.Equal(t, time.Second, g.WithTimeout(time.Second).timeout)
}
