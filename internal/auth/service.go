package auth

import (
	"context"
	"regexp"
	"time"
	"unicode/utf8"
)

var usernameFormat = regexp.MustCompile("^[a-z0-9_]{3,20}$")

// argon2id rejects passwords above this length anyway; fail early with a
// clear error instead.
const maxPasswordLength = 256

type service struct {
	userRepo       UserRepo
	passwordHasher PasswordHasher
	tokenManager   TokenManager
}

func NewService(userRepo UserRepo, passwordHasher PasswordHasher, tokenManager TokenManager) *service {
	return &service{userRepo: userRepo, passwordHasher: passwordHasher, tokenManager: tokenManager}
}

func (s *service) Signup(ctx context.Context, username, password string) (string, error) {
	if !usernameFormat.MatchString(username) {
		return "", ErrInvalidUsernameFormat
	}
	if utf8.RuneCountInString(password) < 8 {
		return "", ErrWeakPassword
	}
	if len(password) > maxPasswordLength {
		return "", ErrPasswordTooLong
	}

	passwordHash, err := s.passwordHasher.Hash(password)
	if err != nil {
		return "", err
	}

	id, err := s.userRepo.CreateUser(ctx, username, passwordHash)
	if err != nil {
		return "", err
	}

	return s.tokenManager.Generate(id, time.Now())
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	match, err := s.passwordHasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrIncorrectPassword
	}

	return s.tokenManager.Generate(user.Id, time.Now())
}

// VerifyToken returns the user id if the token is valid, else an error.
func (s *service) VerifyToken(token string) (string, error) {
	return s.tokenManager.Verify(token)
}

func (s *service) GenerateToken(id string) (string, error) {
	return s.tokenManager.Generate(id, time.Now())
}
