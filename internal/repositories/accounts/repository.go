// Package accounts stores operator identities and their roles.
package accounts

import "context"

// RoleAdmin grants access to the publishing operations.
const RoleAdmin = "admin"

// Account is an operator identity. The password is kept only as an
// argon2id verifier.
type Account struct {
	ID       string
	Email    string
	Salt     []byte
	Verifier []byte
}

type Repository interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GrantRole(ctx context.Context, accountID, role string) error
	HasRole(ctx context.Context, accountID, role string) (bool, error)
}
