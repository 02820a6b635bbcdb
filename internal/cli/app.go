package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/albertomaydayjhondoe/porterias/internal/backend"
	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/accounts"
	"github.com/albertomaydayjhondoe/porterias/internal/session"
)

// Service is what the console needs from the application.
type Service interface {
	Login(ctx context.Context, c session.Credentials) (session.Session, error)
	Verify(ctx context.Context, sess session.Session) (session.Session, error)
	Logout(sess session.Session)
	Backend(ctx context.Context, sess session.Session) (backend.Backend, error)
	Enroll(ctx context.Context, c session.Credentials, admin bool) (*accounts.Account, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	IdentityGate() bool
}

type App struct {
	svc     Service
	reader  *bufio.Reader
	out     io.Writer
	sess    session.Session
	backend backend.Backend
}

func NewApp(svc Service, in io.Reader, out io.Writer) *App {
	return &App{svc: svc, reader: bufio.NewReader(in), out: out}
}

func (a *App) isLoggedIn() bool {
	return a.sess.Token != ""
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s)", a.sess.AccountID)
}

// Run blocks until the operator leaves.
func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
	if a.isLoggedIn() {
		a.svc.Logout(a.sess)
	}
}

// verify re-checks the current session. An expired or revoked session is
// dropped.
func (a *App) verify(ctx context.Context) error {
	if !a.isLoggedIn() {
		return fmt.Errorf("log in first: %w", common.ErrUnauthorized)
	}
	sess, err := a.svc.Verify(ctx, a.sess)
	if err != nil {
		a.sess, a.backend = session.Session{}, nil
		return err
	}
	a.sess = sess
	return nil
}

// activeBackend returns the backend bound to the verified session, building
// it on first use.
func (a *App) activeBackend(ctx context.Context) (backend.Backend, error) {
	if err := a.verify(ctx); err != nil {
		return nil, err
	}
	if a.backend == nil {
		b, err := a.svc.Backend(ctx, a.sess)
		if err != nil {
			return nil, err
		}
		a.backend = b
	}
	return a.backend, nil
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail prints err as an operator notification and returns it.
func (a *App) fail(err error) error {
	a.println(common.Describe(err))
	return err
}
