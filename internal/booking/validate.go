package booking

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// Validate is the one validator instance of the process: the HTTP request
// validator and the catalog both use it.  Field errors carry JSON names, and
// it knows the contact_email and contact_phone tags.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("contact_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

type contact struct {
	Email string `validate:"required,contact_email"`
	Phone string `validate:"required,contact_phone"`
}

func validateContact(email, phone string) error {
	err := Validate.Struct(contact{Email: email, Phone: phone})
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		switch fields[0].Field() {
		case "Email":
			return validationError("Please provide a valid email")
		case "Phone":
			return validationError("Please provide a valid 10-digit phone number")
		}
	}
	return validationError("%s", err.Error())
}
