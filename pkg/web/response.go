// Package web defines common components for a web application.
package web

import (
	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Error wraps a given err into a response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg returns the readable tail of a validation message; callers
// prefix it with the field name.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "max":
		return " must be at most " + fe.Param() + " characters"
	case "currency":
		return " is not a supported currency"
	case "amount":
		return " must be a decimal with up to 14 integer and 3 fractional digits"
	case "nefield":
		return " must differ from " + fe.Param()
	default:
		return " is invalid"
	}
}
