package users

import "context"

// Repo is the User Store collaborator. The core assumes nothing about its
// transaction semantics beyond Create being an atomic create-if-absent: the
// Exists check at signup start is advisory only, Create is authoritative.
type Repo interface {
	// Exists reports whether an account with the given email is registered.
	Exists(ctx context.Context, email string) (bool, error)

	// Create stores a new account. When an account with the same email
	// already exists it fails with errors.ErrAlreadyRegistered and stores
	// nothing.
	Create(ctx context.Context, account *Account) (*Account, error)

	// FindByEmail returns the account for an email, or
	// errors.ErrNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Update replaces a stored account, keyed by email. Fails with
	// errors.ErrNotFound when absent.
	Update(ctx context.Context, account *Account) error
}
