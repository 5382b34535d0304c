package models

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound           = errors.New("resource not found") // General not found
	ErrPersistenceFailure = errors.New("persistence failure")

	// Story graph lookups. Все они оборачивают ErrNotFound, чтобы errors.Is(err, ErrNotFound) работал.
	ErrStoryNotFound    = fmt.Errorf("story not found: %w", ErrNotFound)
	ErrPageNotFound     = fmt.Errorf("page not found: %w", ErrNotFound)
	ErrInvalidChoice    = fmt.Errorf("invalid choice: %w", ErrNotFound)
	ErrProgressNotFound = fmt.Errorf("progress not found: %w", ErrNotFound)

	// Monetization
	ErrInsufficientFunds = errors.New("insufficient currency")
	ErrAlreadyPurchased  = errors.New("choice already purchased")
	ErrInvalidAmount     = errors.New("amount must be positive")

	// User & Authentication Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// General Request/Server Errors
	ErrInvalidRequest = errors.New("invalid navigation request")
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
