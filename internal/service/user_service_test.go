package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, " Alice ", "A@X.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.True(t, user.IsActive)
	assert.EqualValues(t, "user", user.Role)

	_, err = env.users.Register(ctx, "Again", "a@x.com", "Secret1!")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name, userName, email, password string
	}{
		{"missing name", "", "a@x.com", "Secret1!"},
		{"missing password", "A", "a@x.com", ""},
		{"bad email", "A", "not-an-email", "Secret1!"},
		{"short password", "A", "a@x.com", "abc"},
		{"password over bcrypt limit", "A", "a@x.com", strings.Repeat("p", 80)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tc.userName, tc.email, tc.password)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "a@x.com")

	_, err := env.users.Authenticate(ctx, "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Authenticate(ctx, "nobody@x.com", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := env.users.Authenticate(ctx, "A@x.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, user.LastLogin)
	assert.True(t, user.LastLogin.Equal(env.clock.now))
	assert.Empty(t, user.PasswordHash)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "a@x.com")

	stored, err := env.userRepo.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	stored.IsActive = false
	require.NoError(t, env.userRepo.Update(ctx, stored))

	_, err = env.users.Authenticate(ctx, "a@x.com", "Secret1!")
	assert.ErrorIs(t, err, ErrAccountDisabled)

	_, err = env.users.Authenticate(ctx, "a@x.com", "bad-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")
	env.register(t, "b@x.com")

	taken := "B@x.com"
	_, err := env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	same := "a@x.com"
	name := "Alice Cooper"
	updated, err := env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Name: &name, Email: &same})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)

	fresh := "alice@x.com"
	updated, err = env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Email: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", updated.Email)

	blank := "  "
	_, err = env.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Name: &blank})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = env.users.UpdateProfile(ctx, 9999, ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "a@x.com")

	err := env.users.ChangePassword(ctx, user.ID, "not-it", "NewSecret2!")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	err = env.users.ChangePassword(ctx, user.ID, "Secret1!", "abc")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	err = env.users.ChangePassword(ctx, user.ID, "Secret1!", strings.Repeat("p", 80))
	assert.True(t, errors.As(err, &verr), "got %v", err)

	require.NoError(t, env.users.ChangePassword(ctx, user.ID, "Secret1!", "NewSecret2!"))

	_, err = env.users.Authenticate(ctx, "a@x.com", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Authenticate(ctx, "a@x.com", "NewSecret2!")
	assert.NoError(t, err)
}
