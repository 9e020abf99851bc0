package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", "klinik")
	user := model.CurrentUser{ID: uuid.New(), Role: model.RoleDoctor}

	token, err := svc.Generate(user, time.Hour)
	require.NoError(t, err)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestValidateRejects(t *testing.T) {
	svc := NewTokenService("secret", "klinik")
	user := model.CurrentUser{ID: uuid.New(), Role: model.RoleAdmin}

	expired := NewTokenService("secret", "klinik")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Generate(user, time.Hour)
	require.NoError(t, err)

	otherKey, err := NewTokenService("other", "klinik").Generate(user, time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewTokenService("secret", "someone-else").Generate(user, time.Hour)
	require.NoError(t, err)

	badRole, err := svc.Generate(model.CurrentUser{ID: uuid.New(), Role: "nurse"}, time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expiredToken,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"unknown role": badRole,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
