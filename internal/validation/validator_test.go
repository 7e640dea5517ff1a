package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	v := NewValidator()

	type req struct {
		Name string `json:"name" validate:"required"`
	}

	assert.Error(t, v.Validate(req{}))
	assert.NoError(t, v.Validate(req{Name: "x"}))
}

func TestMinMax(t *testing.T) {
	v := NewValidator()

	type req struct {
		Login    string  `json:"login" validate:"min=3,max=10"`
		Quantity float64 `json:"quantity" validate:"min=0"`
	}

	assert.Error(t, v.Validate(req{Login: "ab", Quantity: 1}))
	assert.Error(t, v.Validate(req{Login: "abcdefghijk", Quantity: 1}))
	assert.Error(t, v.Validate(req{Login: "abc", Quantity: -1}))
	assert.NoError(t, v.Validate(req{Login: "abc", Quantity: 0}))
}

func TestOneOf(t *testing.T) {
	v := NewValidator()

	type req struct {
		Role string `json:"role" validate:"oneof=tenant accountant admin"`
	}

	assert.NoError(t, v.Validate(req{Role: "tenant"}))
	assert.Error(t, v.Validate(req{Role: "operator"}))
}

func TestPointerAndNonStruct(t *testing.T) {
	v := NewValidator()

	type req struct {
		Name string `json:"name" validate:"required"`
	}

	assert.NoError(t, v.Validate(&req{Name: "x"}))
	assert.Error(t, v.Validate("not a struct"))
}
