// Package app wires configuration into a session gate, the credential
// source and the configured persistence backend.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/albertomaydayjhondoe/porterias/internal/backend"
	"github.com/albertomaydayjhondoe/porterias/internal/backend/direct"
	"github.com/albertomaydayjhondoe/porterias/internal/backend/export"
	"github.com/albertomaydayjhondoe/porterias/internal/backend/managed"
	"github.com/albertomaydayjhondoe/porterias/internal/config"
	"github.com/albertomaydayjhondoe/porterias/internal/contents"
	"github.com/albertomaydayjhondoe/porterias/internal/credentials"
	"github.com/albertomaydayjhondoe/porterias/internal/db"
	"github.com/albertomaydayjhondoe/porterias/internal/dbx"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/accounts"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/metadata"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/strips"
	"github.com/albertomaydayjhondoe/porterias/internal/session"
)

// Test seams.
var (
	openPostgres   = db.OpenPostgres
	openSQLite     = db.OpenSQLite
	newObjectStore = func(ctx context.Context, cfg managed.S3Config) (managed.ObjectStore, error) {
		return managed.NewS3Client(ctx, cfg)
	}
)

// ErrNoAccounts is returned by Enroll when the gate is not the identity form.
var ErrNoAccounts = errors.New("account enrollment needs the identity gate")

type App struct {
	cfg  *config.Config
	log  logging.Logger
	clip backend.Clipboard

	local    *sql.DB
	pg       *sql.DB
	creds    *credentials.Source
	gate     session.Gate
	secret   *session.SecretGate
	identity *session.IdentityGate

	// HTTPClient is used by the direct backend when set.
	HTTPClient *http.Client
}

// New opens the local store and builds the gate selected by cfg.GateMode.
// The identity gate also opens PostgreSQL.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}
	a := &App{cfg: cfg, log: log, clip: backend.SystemClipboard{}}

	local, err := openSQLite(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	a.local = local
	a.creds = credentials.NewSource(metadata.NewSQLiteRepository(local), cfg.ContentsToken)

	lockout := session.NewLockout(cfg.MaxLoginAttempts, cfg.LockoutDuration, nil)
	switch cfg.GateMode {
	case config.GateIdentity:
		pg, err := a.postgres(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		repo := accounts.NewPostgresRepository(pg)
		a.identity = session.NewIdentityGate(repo, session.RepositoryRoles{Repo: repo},
			cfg.SecretKey, cfg.SessionTTL, lockout, log).WithTimeout(cfg.RequestTimeout)
		a.gate = a.identity
	default:
		g, err := session.NewSecretGate(cfg.SharedSecret, lockout, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.secret = g
		a.gate = g
	}

	log.Info(ctx, "app initialized", "backend", cfg.Backend, "gate", cfg.GateMode)
	return a, nil
}

func (a *App) postgres(ctx context.Context) (*sql.DB, error) {
	if a.pg != nil {
		return a.pg, nil
	}
	pg, err := openPostgres(ctx, a.cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.pg = pg
	return pg, nil
}

// SetClipboard replaces the system clipboard used by the export and direct
// backends.
func (a *App) SetClipboard(c backend.Clipboard) { a.clip = c }

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Credentials() *credentials.Source { return a.creds }

func (a *App) Login(ctx context.Context, c session.Credentials) (session.Session, error) {
	return a.gate.Login(ctx, c)
}

// Verify re-checks sess before a privileged operation.
func (a *App) Verify(ctx context.Context, sess session.Session) (session.Session, error) {
	return a.gate.Verify(ctx, sess.Token)
}

// Logout forgets sess. JWT sessions simply expire.
func (a *App) Logout(sess session.Session) {
	if a.secret != nil {
		a.secret.Logout(sess.Token)
	}
}

// Enroll creates an account in one transaction.
func (a *App) Enroll(ctx context.Context, c session.Credentials, admin bool) (*accounts.Account, error) {
	if a.identity == nil {
		return nil, ErrNoAccounts
	}
	txCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()
	var acc *accounts.Account
	err := dbx.WithTx(txCtx, a.pg, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		acc, err = a.identity.WithAccounts(accounts.NewPostgresRepository(tx)).Enroll(ctx, c, admin)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.log.Info(ctx, "account enrolled", "account_id", acc.ID, "admin", admin)
	return acc, nil
}

// Backend builds the backend named by the configuration for sess.
func (a *App) Backend(ctx context.Context, sess session.Session) (backend.Backend, error) {
	if err := sess.Authorize(); err != nil {
		return nil, err
	}
	cfg := a.cfg

	switch cfg.Backend {
	case config.BackendManaged:
		pg, err := a.postgres(ctx)
		if err != nil {
			return nil, err
		}
		s3cfg := managed.S3Config{
			Region:         cfg.S3Region,
			AccessKey:      cfg.S3RootUser,
			SecretKey:      cfg.S3RootPassword,
			BaseEndpoint:   cfg.S3BaseEndpoint,
			Bucket:         cfg.S3Bucket,
			PublicBaseURL:  cfg.S3PublicBaseURL,
			RequestTimeout: cfg.RequestTimeout,
		}
		objects, err := newObjectStore(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		b, err := managed.New(objects, s3cfg, strips.NewPostgresRepository(pg), sess, a.log)
		if err != nil {
			return nil, err
		}
		return b, nil

	case config.BackendExport:
		b, err := export.New(export.Config{
			Dir:          cfg.ExportDir,
			MediaDir:     cfg.MediaDir,
			DocumentPath: cfg.DocumentPath,
		}, a.clip, sess, a.log)
		if err != nil {
			return nil, err
		}
		return b, nil

	case config.BackendDirect:
		token, err := a.creds.Token(ctx)
		if err != nil {
			return nil, err
		}
		client := contents.New(contents.Config{
			BaseURL:    cfg.ContentsAPIURL,
			Owner:      cfg.RepoOwner,
			Repo:       cfg.RepoName,
			Branch:     cfg.Branch,
			Token:      token,
			Timeout:    cfg.RequestTimeout,
			HTTPClient: a.HTTPClient,
		}, a.log)
		reader := contents.NewReader(cfg.SiteURL, cfg.DataPath, cfg.RequestTimeout, a.HTTPClient)
		b, err := direct.New(client, reader, nil, a.clip, direct.Config{
			MediaDir:        cfg.MediaDir,
			DocumentPath:    cfg.DocumentPath,
			ReadLimit:       cfg.ReadLimit,
			InstructionsDir: cfg.ExportDir,
		}, sess, a.log)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Close releases the databases.
func (a *App) Close() error {
	var errs []error
	if a.pg != nil {
		errs = append(errs, a.pg.Close())
	}
	if a.local != nil {
		errs = append(errs, a.local.Close())
	}
	return errors.Join(errs...)
}

// IdentityGate reports whether accounts can be enrolled.
func (a *App) IdentityGate() bool { return a.identity != nil }

// SetToken stores a local override of the contents API token.
func (a *App) SetToken(ctx context.Context, token string) error {
	return a.creds.SetOverride(ctx, token)
}

// ClearToken removes the local override.
func (a *App) ClearToken(ctx context.Context) error {
	return a.creds.ClearOverride(ctx)
}
