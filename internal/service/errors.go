package service

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInactive = errors.New("session is not active")
	ErrSlugExhausted   = errors.New("could not allocate a unique session slug")

	ErrRequestNotFound = errors.New("request not found")
	ErrRequestExists   = errors.New("request already exists")
	ErrInvalidStatus   = errors.New("invalid request status")
	ErrInvalidMutation = errors.New("invalid mutation")

	ErrTokenEmpty               = errors.New("token is empty")
	ErrTokenInvalid             = errors.New("token is invalid")
	ErrTokenUnexpectedSignature = errors.New("unexpected token signing method")
	ErrTokenInvalidClaims       = errors.New("token claims are invalid")
	ErrTokenWrongSession        = errors.New("token was issued for another session")
)
