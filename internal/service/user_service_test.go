package service_test

import (
	"Orion_Video/internal/service"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginProfile(t *testing.T) {
	e := newEnv(t, envOptions{})

	u, err := e.accounts.Register(e.ctx, service.RegisterInput{
		Name:     "Neo",
		Email:    " Neo@Orion.test ",
		Password: "matrix42",
	})
	require.NoError(t, err)
	assert.Equal(t, "neo@orion.test", u.Email)
	assert.NotEqual(t, "matrix42", u.Password)

	_, err = e.accounts.Register(e.ctx, service.RegisterInput{Name: "Neo2", Email: "neo@orion.test", Password: "whatever"})
	assert.ErrorIs(t, err, service.ErrEmailTaken)
	_, err = e.accounts.Register(e.ctx, service.RegisterInput{Name: "x", Email: "not-an-email", Password: "whatever"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, _, err = e.accounts.Login(e.ctx, "neo@orion.test", "wrong")
	assert.ErrorIs(t, err, service.ErrBadCredentials)
	_, _, err = e.accounts.Login(e.ctx, "nobody@orion.test", "matrix42")
	assert.ErrorIs(t, err, service.ErrBadCredentials)

	token, logged, err := e.accounts.Login(e.ctx, "NEO@orion.test", "matrix42")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(u.ID), claims["user_id"])
	assert.Equal(t, "Neo", claims["name"])

	v := e.createVideo(t, u.ID)
	profile, err := e.accounts.GetProfile(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{v.ID}, profile.VideoIDs)

	_, err = e.accounts.GetProfile(e.ctx, 999)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}
