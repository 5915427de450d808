package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
)

// RequestValidator plugs go-playground/validator into Echo.  Field names in
// its errors are the JSON names of the request.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator installed as echo.Echo.Validator.
func NewValidator() *RequestValidator {
	return &RequestValidator{v: booking.Validate}
}

// Validate implements echo.Validator.  It returns a booking validation error
// naming the first offending field.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return invalidInput("%s", err.Error())
	}
	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return invalidInput("%s is required", fe.Field())
	case "min", "gte":
		return invalidInput("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return invalidInput("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return invalidInput("%s must be a valid email", fe.Field())
	case "oneof":
		return invalidInput("%s must be one of %s", fe.Field(), fe.Param())
	}
	return invalidInput("%s is invalid", fe.Field())
}

func invalidInput(format string, args ...any) error {
	return &booking.Error{Kind: booking.KindValidation, Message: fmt.Sprintf(format, args...)}
}

// bindValid decodes the request into dst and validates it.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return invalidInput("invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}
