// Package validator registers the clinic's request tags on go-playground/validator and turns
// validation failures into client-facing messages.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required":          "is required",
	"uuid":              "must be a valid id",
	"datetime":          "must be a date formatted YYYY-MM-DD",
	"slottime":          "must be a time formatted HH:MM",
	"paymethod":         "must be one of cash, transfer, qris, card",
	"appointmentstatus": "must be a known appointment status",
	"max":               "is too long",
	"gte":               "must not be negative",
}

var customTags = map[string]validator.Func{
	"slottime": func(fl validator.FieldLevel) bool {
		_, err := model.ParseClock(fl.Field().String())
		return err == nil && len(fl.Field().String()) == 5
	},
	"paymethod": func(fl validator.FieldLevel) bool {
		return model.PaymentMethod(fl.Field().String()).Valid()
	},
	"appointmentstatus": func(fl validator.FieldLevel) bool {
		_, err := model.ParseAppointmentStatus(fl.Field().String())
		return err == nil
	},
}

// New returns a validator with the clinic tags registered.
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Register adds the custom tags and reports fields by their json names.
func Register(v *validator.Validate) error {
	for tag, fn := range customTags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}

var ginOnce sync.Once

// RegisterWithGin installs the tags on gin's default binding validator.
func RegisterWithGin() {
	ginOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := Register(v); err != nil {
				panic(err)
			}
		}
	})
}

// Fields converts a binding error into per-field messages. ok is false when err is not a
// validation failure.
func Fields(err error) (fields []FieldError, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	for _, e := range verrs {
		msg, found := messages[e.Tag()]
		if !found {
			msg = fmt.Sprintf("failed %s validation", e.Tag())
		}
		fields = append(fields, FieldError{Field: e.Field(), Message: msg})
	}
	return fields, true
}

// Summary joins field errors into a single sentence.
func Summary(fields []FieldError) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + " " + f.Message
	}
	return strings.Join(parts, "; ")
}
