package services

import (
	"fmt"
	"time"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
)

type IAuthService interface {
	Register(phone, password string) (Token, error)
	Login(phone, password string) (Token, error)
}

type AuthService struct {
	directory     contract.UserDirectory
	tokenDuration time.Duration
}

type Token string

func NewAuthService(directory contract.UserDirectory, tokenDuration time.Duration) IAuthService {
	return &AuthService{directory: directory, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(phone, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Phone:    phone,
		Password: password,
	}

	// 1. Validate business rules (phone shape, password complexity)
	// before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("invalid registration: %w", err)
	}

	// 2. Hash the password with Argon2id. Done here so the directory
	// never sees a plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the record. Propagates ErrUserAlreadyExists.
	if err := s.directory.Create(domain.Identity(phone), hashedPassword); err != nil {
		return "", err
	}

	// 4. Issue the initial session token.
	token, err := auth.GenerateToken(phone, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(phone, password string) (Token, error) {
	record, err := s.directory.Find(domain.Identity(phone))
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, record.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(phone, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}
