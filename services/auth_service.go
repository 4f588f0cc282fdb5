//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	stderrors "errors"

	"whisperwall/auth"
	"whisperwall/domain"
	"whisperwall/errors"
	"whisperwall/repositories"
)

type IAuthService interface {
	Login(code string) (Token, error)
	Register(code string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         auth.TokenManager
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(repo repositories.IUserRepository, tokens auth.TokenManager) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

// Register claims a code. The first caller wins, any later one gets ErrCodeTaken.
func (s *AuthService) Register(code string) (Token, error) {
	valid, err := auth.ValidateRegister(auth.RegisterRequest{Code: code})
	if err != nil {
		return "", err
	}

	user, err := s.userRepository.CreateUser(valid)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(user.Code)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}

// Login only checks that the code exists.
func (s *AuthService) Login(code string) (Token, error) {
	valid, err := domain.ParseCode(code)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	user, err := s.userRepository.GetUserByCode(valid)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		return "", errors.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(user.Code)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}
