// Package validation runs struct-tag validation on application requests before
// any transaction is opened. It reads the same `binding` tags gin uses, so a
// request validated at the HTTP edge is validated identically when a service
// is called directly.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.SetTagName("binding")
		validate.RegisterTagNameFunc(FieldName)
	})
	return validate
}

// FieldName reports a struct field by its json name, falling back to the
// form name used by query filters. Register it on any validator whose errors
// reach API clients.
func FieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

// Struct validates req and converts failures into a VALIDATION_ERROR
// naming the first offending field
func Struct(req any) error {
	err := engine().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return shared.NewValidationError(Message(verrs[0]))
	}
	return shared.NewValidationError(err.Error())
}

// Message renders a single field error for callers
func Message(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Cursor parses the query-string cursor and limit of a listing
func Cursor(raw string, limit int) (shared.CursorFilter, error) {
	f := shared.CursorFilter{Limit: limit}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return f, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return f, shared.NewValidationError("cursor is invalid")
	}
	f.Cursor = &id
	return f, nil
}
