package validation

import (
	"testing"

	"social-explore-client/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
	Kind     string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestStruct_FirstFailureInFieldOrder(t *testing.T) {
	err := Struct(signup{Email: "nope", Password: "x"}, nil)
	require.Error(t, err)

	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "name", v.Field)
	assert.Equal(t, "name is required", v.Message)
}

func TestStruct_Messages(t *testing.T) {
	msgs := Messages{
		"email.email": "enter a real address",
		"kind":        "unknown kind %q",
	}

	err := Struct(signup{Name: "Ana", Email: "nope", Password: "secret1"}, msgs)
	assert.Equal(t, "enter a real address", apperr.UserMessage(err, ""))

	err = Struct(signup{Name: "Ana", Email: "ana@example.com", Password: "secret1", Kind: "c"}, msgs)
	assert.Equal(t, `unknown kind "c"`, apperr.UserMessage(err, ""))

	err = Struct(signup{Name: "Ana", Email: "ana@example.com", Password: "abc"}, msgs)
	assert.Equal(t, "password must be at least 6 characters", apperr.UserMessage(err, ""))

	assert.NoError(t, Struct(signup{Name: "Ana", Email: "ana@example.com", Password: "secret1"}, msgs))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("max_people", 4, "gt=0", nil))

	err := Var("max_people", 0, "gt=0", Messages{"max_people": "must be positive"})
	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "max_people", v.Field)
	assert.Equal(t, "must be positive", v.Message)
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct(42, nil)
	require.Error(t, err)
	assert.False(t, apperr.IsValidation(err))
}
