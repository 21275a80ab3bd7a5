// Package validator wraps go-playground/validator behind a small struct
// so handlers can share one configured instance.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates request structs against their validate tags.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator. Custom rules are added with
// RegisterValidation before the instance is shared.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates s against its validate tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom rule under tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
