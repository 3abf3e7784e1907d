package validator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantidade" validate:"gt=0"`
	Internal string `json:"-"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&sample{Email: "a@b.com", Quantity: 1}))

	err := v.Validate(&sample{Email: "not-an-email"})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "deve ser um email válido", validationErr.Fields["email"])
	assert.Equal(t, "deve ser maior que zero", validationErr.Fields["quantidade"])
	assert.Equal(t, "email deve ser um email válido", validationErr.Message())
}
