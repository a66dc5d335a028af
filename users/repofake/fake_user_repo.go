package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is a thread-safe in-memory users.Repo used in tests and as
// the default store when no database is configured.
type FakeUserRepo struct {
	lock     sync.Mutex
	accounts map[string]*users.Account // keyed by email
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		accounts: make(map[string]*users.Account),
	}
}

func (ur *FakeUserRepo) Exists(_ context.Context, email string) (bool, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	_, ok := ur.accounts[email]
	return ok, nil
}

// Create is an atomic create-if-absent: the existence check and the insert
// happen under one lock.
func (ur *FakeUserRepo) Create(_ context.Context, account *users.Account) (*users.Account, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.accounts[account.Email]; ok {
		return nil, errorsx.ErrAlreadyRegistered
	}

	stored := *account
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	ur.accounts[stored.Email] = &stored

	out := stored
	return &out, nil
}

func (ur *FakeUserRepo) FindByEmail(_ context.Context, email string) (*users.Account, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	account, ok := ur.accounts[email]
	if !ok {
		return nil, errorsx.ErrNotFound
	}
	out := *account
	return &out, nil
}

// Update replaces a stored account. Used by the social login flow to record
// provider bookkeeping on pre-existing accounts.
func (ur *FakeUserRepo) Update(_ context.Context, account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.accounts[account.Email]; !ok {
		return errorsx.ErrNotFound
	}
	stored := *account
	ur.accounts[account.Email] = &stored
	return nil
}
