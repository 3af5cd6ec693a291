package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/config"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/storage/memstorage"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
	}
	return NewAuthService(memstorage.NewUserRepository(), cfg, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "alice@example.com", created.Email)

	tok, err := svc.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)

	userID, err := svc.ValidateToken(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, userID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "pw1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob@example.com", "pw2")
	assert.ErrorIs(t, err, ierr.ErrConflict)
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "correct-pw")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "carol@example.com", "wrong-pw")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "correct-pw")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.ValidateToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := newAuthService(t)
	verifier := NewAuthService(memstorage.NewUserRepository(), &config.JWTConfig{
		Secret:         "other-secret",
		AccessTokenTTL: time.Hour,
	}, zap.NewNop())
	ctx := context.Background()

	_, err := issuer.Register(ctx, "dave@example.com", "pw")
	require.NoError(t, err)
	tok, err := issuer.Login(ctx, "dave@example.com", "pw")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "erin@example.com", "old-pw")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, created.ID, "bad-guess", "new-pw")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, created.ID, "old-pw", "new-pw"))

	_, err = svc.Login(ctx, "erin@example.com", "old-pw")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "erin@example.com", "new-pw")
	assert.NoError(t, err)
}
