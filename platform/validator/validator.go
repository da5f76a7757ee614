// Package validator wraps go-playground validation and registers the
// application's custom rules. This is part of the platform layer and
// contains no business logic.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates request structs against their validation tags.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New()
	// Registration only fails on an empty tag.
	_ = v.RegisterValidation("filename", validFileName)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// validFileName accepts plain file names only: no path separators and
// no parent references, so a client-supplied name can never steer a
// storage key out of its folder.
func validFileName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return !strings.Contains(name, "..")
}
