package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docverify/pkg/domain-errors"
)

func TestCreateAdminRequestValidate(t *testing.T) {
	req := CreateAdminRequest{
		Name:     "  Jane  ",
		Email:    " Jane@Example.com ",
		Password: "Secret123",
		Phone:    "+1 555 123 4567",
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Jane", req.Name)
	assert.Equal(t, "jane@example.com", req.Email)

	req.Password = "secret"
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
}

func TestUpdateAdminRequestValidate(t *testing.T) {
	t.Run("empty update", func(t *testing.T) {
		err := (&UpdateAdminRequest{}).Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("normalizes email", func(t *testing.T) {
		email := " A@B.COM "
		req := UpdateAdminRequest{Email: &email}
		require.NoError(t, req.Validate())
		assert.Equal(t, "a@b.com", *req.Email)
	})

	t.Run("bad phone", func(t *testing.T) {
		phone := "abc"
		err := (&UpdateAdminRequest{Phone: &phone}).Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
