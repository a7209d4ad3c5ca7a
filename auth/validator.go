package auth

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	"chat-relay/errors"
)

var validate = validator.New()

// RegisterRequest is the inbound registration payload. The phone rule
// mirrors the identity domain rule: digits only, nothing else.
type RegisterRequest struct {
	Phone    string `validate:"required,number,min=4,max=15"`
	Password string `validate:"required,min=8,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

// isPasswordComplex requires at least one upper, lower, digit and
// special character.
func isPasswordComplex(s string) bool {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
