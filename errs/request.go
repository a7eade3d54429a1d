package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Authentication & Authorization Errors
var (
	ErrMissingToken = errors.New("missing access token")
	ErrExpiredToken = errors.New("expired access token")
	ErrInvalidToken = errors.New("invalid access token")
	ErrNotAdmin     = errors.New("not an administrator")
	ErrBadLogin     = errors.New("invalid email or password")
)

// Validation errors all unwrap to ErrValidation so callers can test the category
// while still getting the precise sentinel.
func validation(sentinel error) error {
	return tagged(sentinel.Error(), ErrValidation, sentinel)
}

func NewMalformedPayloadError(payloadType string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        validation(ErrMalformedPayload),
		Details:    fmt.Sprintf("Malformed %s payload", payloadType),
		Cause:      cause,
		Field:      "payload",
	}
}

func NewMissingRequiredFieldError(fieldName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        validation(ErrMissingRequiredField),
		Details:    fmt.Sprintf("Missing required field: %s", fieldName),
		Field:      fieldName,
	}
}

func NewInvalidFieldError(fieldName string, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        validation(ErrInvalidField),
		Details:    fmt.Sprintf("Invalid field %s: %s", fieldName, reason),
		Field:      fieldName,
	}
}

func NewUnsupportedMediaTypeError(contentType string, allowedTypes []string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnsupportedMediaType,
		err:        ErrUnsupportedMediaType,
		Details:    fmt.Sprintf("Unsupported media type: %s. Allowed types: %s", contentType, strings.Join(allowedTypes, ", ")),
		Field:      "content_type",
	}
}

func NewMaxBodySizeExceededError(maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrMaxBodySizeExceeded,
		Details:    fmt.Sprintf("Request body size exceeded maximum allowed size of %d bytes", maxSize),
		Field:      "body_size",
	}
}

func NewInvalidJSONError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        validation(ErrInvalidJSON),
		Details:    "Invalid JSON format",
		Cause:      cause,
		Field:      "json",
	}
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidFieldError(err error) bool {
	return errors.Is(err, ErrInvalidField)
}

// Authentication & Authorization Error Constructors
func NewMissingTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        tagged(ErrMissingToken.Error(), ErrUnauthorized, ErrMissingToken),
		Details:    "No token, authorization denied",
		Field:      "authorization",
	}
}

func NewExpiredTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        tagged(ErrExpiredToken.Error(), ErrUnauthorized, ErrExpiredToken),
		Details:    "Access token has expired",
		Field:      "authorization",
	}
}

func NewInvalidTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        tagged(ErrInvalidToken.Error(), ErrUnauthorized, ErrInvalidToken),
		Details:    "Invalid access token",
		Field:      "authorization",
	}
}

func NewNotAdminError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        tagged(ErrNotAdmin.Error(), ErrForbidden, ErrNotAdmin),
		Details:    "Authenticated identity is not the site administrator",
		Field:      "authorization",
	}
}

func NewBadLoginError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        tagged(ErrBadLogin.Error(), ErrUnauthorized, ErrBadLogin),
	}
}

// Authentication & Authorization Error Type Checkers
func IsMissingTokenError(err error) bool {
	return errors.Is(err, ErrMissingToken)
}

func IsExpiredTokenError(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}

func IsInvalidTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
