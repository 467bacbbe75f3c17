package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "User not found")
		assert.Equal(t, "NOT_FOUND: User not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "phone", "reason": "invalid format"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"AccountSuspended", func() *AppError { return AccountSuspended() }, ErrCodeAccountSuspended},
		{"NotFound", func() *AppError { return NotFound("User") }, ErrCodeNotFound},
		{"AlreadyExists", func() *AppError { return AlreadyExists("User") }, ErrCodeAlreadyExists},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("phone", "invalid") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("phone") }, ErrCodeMissingRequired},
		{"ProviderNotConfigured", func() *AppError { return ProviderNotConfigured() }, ErrCodeProviderNotConfigured},
		{"AlreadyLinked", func() *AppError { return AlreadyLinked() }, ErrCodeAlreadyLinked},
		{"LinkSessionExpired", func() *AppError { return LinkSessionExpired() }, ErrCodeLinkSessionExpired},
		{"SecondFactorRequired", func() *AppError { return SecondFactorRequired() }, ErrCodeSecondFactorRequired},
		{"ProviderRejected", func() *AppError { return ProviderRejected("PHONE_CODE_INVALID") }, ErrCodeProviderRejected},
		{"NotLinked", func() *AppError { return NotLinked() }, ErrCodeNotLinked},
		{"InvalidBotLink", func() *AppError { return InvalidBotLink() }, ErrCodeInvalidBotLink},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestProviderRejected(t *testing.T) {
	t.Run("carries the provider message through", func(t *testing.T) {
		err := ProviderRejected("The confirmation code has expired")
		assert.Equal(t, "The confirmation code has expired", err.Message)
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns code for AppError", func(t *testing.T) {
		err := LinkSessionExpired()
		assert.Equal(t, ErrCodeLinkSessionExpired, GetCode(err))
	})

	t.Run("returns internal code for plain error", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("boom")))
	})
}
