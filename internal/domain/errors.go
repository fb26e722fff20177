package domain

import "errors"

// Storage errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateUsername    = errors.New("duplicate username")
	UnexpectedDatabaseError = errors.New("unexpected database error")
)

// Token errors
var (
	ErrInvalidSigningAlg             = errors.New("invalid signing algorithm")
	ErrExpiredToken                  = errors.New("expired token")
	ErrInvalidTokenSignature         = errors.New("invalid token signature")
	ErrCorruptedToken                = errors.New("corrupted token")
	UnexpectedTokenGenerationError   = errors.New("unexpected token generation error")
	UnexpectedTokenVerificationError = errors.New("unexpected token verification error")
)

var UnexpectedPasswordHashError = errors.New("unexpected password hash error")
