package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"whisperwall/domain"
	"whisperwall/errors"
)

var validate = validator.New()

type RegisterRequest struct {
	Code string `validate:"required,len=4,numeric"`
}

// ValidateRegister returns the code once the request passed validation.
func ValidateRegister(req RegisterRequest) (domain.Code, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidCode, err)
	}
	return domain.ParseCode(req.Code)
}
