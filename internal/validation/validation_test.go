package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required,min=3,max=10"`
	Email string `validate:"omitempty,email"`
}

func TestStructValid(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "Alice"}))
	require.NoError(t, Struct(sample{Name: "Alice", Email: "a@b.com"}))
}

func TestStructInvalid(t *testing.T) {
	err := Struct(sample{})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "name is required")

	err = Struct(sample{Name: "ab"})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "name must be at least 3 characters")

	err = Struct(sample{Name: "Alice", Email: "not-an-email"})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "email must be a valid email address")
}

func TestStructJoinsMultipleFailures(t *testing.T) {
	err := Struct(sample{Name: "", Email: "nope"})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "name is required")
	require.Contains(t, err.Error(), "; ")
}
