package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator checks request payloads against their `validate` tags once at the
// handler boundary, so the services can trust field shapes.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (val *Validator) Validate(obj interface{}) error {
	err := val.v.Struct(obj)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Errorf("field %s failed %s validation", first.Field(), first.Tag())
	}
	return err
}
