package sessionrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/signup"
	"github.com/grubsnap/identity/signup/sessionrepo"
	"github.com/stretchr/testify/require"
)

func testSession(id string) *signup.Session {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return &signup.Session{
		ID:        id,
		Email:     "jane.doe@example.com",
		OTPDigest: "digest",
		OTPSalt:   "salt",
		IssuedAt:  now,
		ExpiresAt: now.Add(10 * time.Minute),
		Locale:    "en",
	}
}

func TestPutGet(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)

	require.NoError(t, repo.Put(context.Background(), testSession("s1")))

	got, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, "jane.doe@example.com", got.Email)
}

func TestGet_ReturnsCopy(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)
	require.NoError(t, repo.Put(context.Background(), testSession("s1")))

	got, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	got.Attempts = 99

	again, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, 0, again.Attempts, "caller mutations never reach the store")
}

func TestGet_NotFound(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)

	_, err := repo.Get(context.Background(), "missing")

	require.ErrorIs(t, err, errorsx.ErrSessionNotFound)
}

func TestUpdate_AppliesMutation(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)
	require.NoError(t, repo.Put(context.Background(), testSession("s1")))

	updated, err := repo.Update(context.Background(), "s1", func(s *signup.Session) error {
		s.Attempts++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated.Attempts)

	stored, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, 1, stored.Attempts)
}

func TestUpdate_RejectedMutationLeavesStoreUntouched(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)
	require.NoError(t, repo.Put(context.Background(), testSession("s1")))

	_, err := repo.Update(context.Background(), "s1", func(s *signup.Session) error {
		s.Attempts = 42
		return errorsx.ErrTooManyAttempts
	})
	require.ErrorIs(t, err, errorsx.ErrTooManyAttempts)

	stored, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, 0, stored.Attempts)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)

	_, err := repo.Update(context.Background(), "missing", func(s *signup.Session) error {
		return nil
	})

	require.ErrorIs(t, err, errorsx.ErrSessionNotFound)
}

// TestUpdate_Linearizable runs concurrent increments through Update: every
// mutation must land, none may be lost to a racing clone.
func TestUpdate_Linearizable(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)
	require.NoError(t, repo.Put(context.Background(), testSession("s1")))

	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(context.Background(), "s1", func(s *signup.Session) error {
				s.Attempts++
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, goroutines, stored.Attempts)
}

func TestDelete(t *testing.T) {
	repo := sessionrepo.New(10 * time.Minute)
	require.NoError(t, repo.Put(context.Background(), testSession("s1")))

	require.NoError(t, repo.Delete(context.Background(), "s1"))

	_, err := repo.Get(context.Background(), "s1")
	require.ErrorIs(t, err, errorsx.ErrSessionNotFound)

	// Deleting an absent session is not an error.
	require.NoError(t, repo.Delete(context.Background(), "s1"))
}
