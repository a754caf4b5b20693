package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/services"
)

func newTestService(t *testing.T) (*service, *ledger.Store) {
	t.Helper()
	store := ledger.New()
	svc := NewService(store, "test-secret", time.Hour)
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestRegister_HashesAndNormalizes(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Email: "  Alice@Example.COM ", Password: "hunter22", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "hunter22", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter22")))

	got, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, Registration{Email: "bob@example.com", Password: "password1", Name: "Bob"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, Registration{Email: "BOB@example.com", Password: "password2", Name: "Imposter"})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	got, err := store.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Bob", got.Name)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Email: "long@example.com", Password: strings.Repeat("é", 40), Name: "Long"})
	require.ErrorIs(t, err, services.ErrValidation)

	_, err = store.GetUserByEmail(ctx, "long@example.com")
	require.ErrorIs(t, err, ledger.ErrUserNotFound)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, Registration{Email: "race@example.com", Password: "password", Name: "R"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, ErrDuplicateEmail)
		}
	}
	assert.Equal(t, 1, ok)
	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, Registration{Email: "carol@example.com", Password: "correct-horse", Name: "Carol"})
	require.NoError(t, err)

	u, token, err := svc.Login(ctx, "Carol@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)

	id, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, id)

	_, _, err = svc.Login(ctx, "carol@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ValidateToken("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(nil, "other-secret", time.Hour)
	forged, err := other.issueToken(1)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	require.ErrorIs(t, err, ErrInvalidToken)

	token, err := svc.issueToken(1)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNonNumericSubject(t *testing.T) {
	svc, _ := newTestService(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
