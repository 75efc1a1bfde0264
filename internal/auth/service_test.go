package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
	"github.com/nikhilkumar688/SamayBihar/internal/logging"
	"github.com/nikhilkumar688/SamayBihar/internal/user"
)

const testAvatar = "https://example.com/default.png"

func newTestService(t *testing.T, store user.Store) (*Service, *TokenIssuer) {
	t.Helper()
	tokens := NewTokenIssuer([]byte("test-secret"), AccessTokenTTL)
	svc := NewService(store, NewPasswordHasher(4), tokens, ServiceOptions{
		DefaultProfilePicture: testAvatar,
		Logger:                logging.Discard(),
		UsernameSuffix:        func() int { return 4821 },
	})
	return svc, tokens
}

func TestSignupThenSignin(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	svc, tokens := newTestService(t, store)

	created, err := svc.Signup(ctx, SignupRequest{Username: "amit", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testAvatar, created.ProfilePicture)
	assert.False(t, created.IsAdmin)
	assert.NotEqual(t, "secret1", created.PasswordHash)

	session, err := svc.Signin(ctx, SigninRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, session.User.ID)

	identity, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: created.ID, IsAdmin: false}, identity)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService(t, user.NewMemoryStore())

	cases := []SignupRequest{
		{},
		{Username: "amit", Email: "a@x.com"},
		{Username: "", Email: "a@x.com", Password: "secret1"},
		{Username: "amit", Password: "secret1"},
	}
	for _, req := range cases {
		_, err := svc.Signup(context.Background(), req)
		require.Error(t, err)
		appErr := apperr.From(err)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Equal(t, http.StatusBadRequest, appErr.Status)
		assert.Equal(t, "All fields are required", appErr.Message)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	svc, _ := newTestService(t, store)

	_, err := svc.Signup(ctx, SignupRequest{Username: "amit", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupRequest{Username: "other", Email: "a@x.com", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, "User already exists with this email", apperr.From(err).Message)
	assert.Equal(t, 1, store.Len())
}

func TestSigninFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, user.NewMemoryStore())
	_, err := svc.Signup(ctx, SignupRequest{Username: "amit", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Signin(ctx, SigninRequest{Email: "nobody@x.com", Password: "secret1"})
	appErr := apperr.From(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "User not found!", appErr.Message)

	_, err = svc.Signin(ctx, SigninRequest{Email: "a@x.com", Password: "wrong"})
	appErr = apperr.From(err)
	assert.Equal(t, apperr.KindAuthentication, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Wrong credentials!", appErr.Message)

	_, err = svc.Signin(ctx, SigninRequest{Email: "a@x.com"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestGoogleExistingUser(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	require.NoError(t, store.Create(ctx, &user.User{
		ID:           "admin-1",
		Username:     "root",
		Email:        "admin@x.com",
		PasswordHash: "irrelevant",
		IsAdmin:      true,
	}))
	svc, tokens := newTestService(t, store)

	session, err := svc.Google(ctx, GoogleRequest{Email: "admin@x.com", Name: "Someone Else", ProfilePhotoURL: "https://p/x.png"})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", session.User.ID)
	assert.Equal(t, "root", session.User.Username)
	assert.Equal(t, 1, store.Len())

	identity, err := tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin)
}

func TestGoogleNewUser(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	svc, _ := newTestService(t, store)

	session, err := svc.Google(ctx, GoogleRequest{Email: "n@x.com", Name: "Nikhil Kumar", ProfilePhotoURL: "https://p/n.png"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "nikhilkumar4821", session.User.Username)
	assert.NotContains(t, session.User.Username, " ")
	assert.Equal(t, "https://p/n.png", session.User.ProfilePicture)
	assert.False(t, session.User.IsAdmin)

	// 使い捨てパスワードはハッシュとして保存され、空文字では照合できない
	stored, err := store.FindByEmail(ctx, "n@x.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2a$"))
	_, err = svc.Signin(ctx, SigninRequest{Email: "n@x.com", Password: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))

	again, err := svc.Google(ctx, GoogleRequest{Email: "n@x.com", Name: "Nikhil Kumar"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
	assert.Equal(t, 1, store.Len())
}

func TestGoogleDefaultsProfilePicture(t *testing.T) {
	svc, _ := newTestService(t, user.NewMemoryStore())

	session, err := svc.Google(context.Background(), GoogleRequest{Email: "n@x.com", Name: "N"})
	require.NoError(t, err)
	assert.Equal(t, testAvatar, session.User.ProfilePicture)
}

func TestGoogleValidation(t *testing.T) {
	store := user.NewMemoryStore()
	svc, _ := newTestService(t, store)

	_, err := svc.Google(context.Background(), GoogleRequest{Name: "N"})
	assert.Equal(t, "Email is required", apperr.From(err).Message)

	_, err = svc.Google(context.Background(), GoogleRequest{Email: "n@x.com", Name: "   "})
	assert.Equal(t, http.StatusBadRequest, apperr.From(err).Status)
	assert.Equal(t, "Name is required", apperr.From(err).Message)
	assert.Equal(t, 0, store.Len())
}

func TestGoogleExistingUserWithoutName(t *testing.T) {
	ctx := context.Background()
	store := user.NewMemoryStore()
	require.NoError(t, store.Create(ctx, &user.User{ID: "u-1", Username: "amit", Email: "a@x.com", PasswordHash: "h"}))
	svc, _ := newTestService(t, store)

	session, err := svc.Google(ctx, GoogleRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.User.ID)
	assert.Equal(t, 1, store.Len())
}

// staleReadStore は最初の FindByEmail だけ未登録を返し、同時作成に負けた状況を再現します。
type staleReadStore struct {
	*user.MemoryStore
	misses atomic.Int32
}

func (s *staleReadStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if s.misses.Add(1) == 1 {
		return nil, user.ErrNotFound
	}
	return s.MemoryStore.FindByEmail(ctx, email)
}

func TestGoogleLostCreateRace(t *testing.T) {
	ctx := context.Background()
	mem := user.NewMemoryStore()
	require.NoError(t, mem.Create(ctx, &user.User{ID: "winner", Username: "first", Email: "r@x.com", PasswordHash: "h"}))
	svc, _ := newTestService(t, &staleReadStore{MemoryStore: mem})

	session, err := svc.Google(ctx, GoogleRequest{Email: "r@x.com", Name: "Racer"})
	require.NoError(t, err)
	assert.Equal(t, "winner", session.User.ID)
	assert.Equal(t, 1, mem.Len())
}

type failingStore struct {
	user.Store
}

func (failingStore) FindByEmail(context.Context, string) (*user.User, error) {
	return nil, errors.New("connection reset")
}

func TestSigninStoreFailureIsInternal(t *testing.T) {
	svc, _ := newTestService(t, failingStore{})

	_, err := svc.Signin(context.Background(), SigninRequest{Email: "a@x.com", Password: "p"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.From(err).Kind)
}

func TestGenerateUsername(t *testing.T) {
	assert.Equal(t, "nikhilkumar7", GenerateUsername("Nikhil  Kumar", 7))
	assert.Equal(t, "ab0", GenerateUsername(" A\tB ", 0))
}
