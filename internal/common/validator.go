package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

// InvalidRequestError lists the request fields that failed validation,
// named after their JSON keys.
type InvalidRequestError struct {
	Fields []string
	Err    error
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("received invalid request body, invalid fields: %s", strings.Join(e.Fields, ", "))
}

func (e *InvalidRequestError) Unwrap() error {
	return e.Err
}

type GenericEchoValidator struct {
	Validator *validator.Validate
}

func NewGenericEchoValidator() *GenericEchoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &GenericEchoValidator{Validator: v}
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
		gv.Validator.RegisterTagNameFunc(jsonFieldName)
	}
	err := gv.Validator.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fieldErr.Field())
	}
	return &InvalidRequestError{Fields: fields, Err: err}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
