// Package credentials resolves the bearer token for the contents API.
//
// A token stored locally by the operator overrides the configured one. The
// token is only ever handed to the contents client.
package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/repositories/metadata"
)

// OverrideKey is the metadata key holding the local override.
const OverrideKey = "contents_token"

// Source yields the bearer token.
type Source struct {
	store      metadata.Repository
	configured string
}

// NewSource reads overrides from store, which may be nil, and falls back to
// configured.
func NewSource(store metadata.Repository, configured string) *Source {
	return &Source{store: store, configured: strings.TrimSpace(configured)}
}

// Token returns the override if set, otherwise the configured token. An
// empty result is common.ErrUnauthorized.
func (s *Source) Token(ctx context.Context) (string, error) {
	if s.store != nil {
		v, err := s.store.Get(ctx, OverrideKey)
		if err != nil {
			return "", fmt.Errorf("read token override: %w", err)
		}
		if t := strings.TrimSpace(string(v)); t != "" {
			return t, nil
		}
	}
	if s.configured == "" {
		return "", fmt.Errorf("no contents API token configured: %w", common.ErrUnauthorized)
	}
	return s.configured, nil
}

// SetOverride stores token locally.
func (s *Source) SetOverride(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return common.NewValidationError(common.ReasonInvalidEntry, "token is empty")
	}
	if s.store == nil {
		return fmt.Errorf("no local store for token overrides")
	}
	return s.store.Set(ctx, OverrideKey, []byte(token))
}

// ClearOverride removes the local override.
func (s *Source) ClearOverride(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, OverrideKey)
}
