// Package common contains shared constants and sentinel errors used across
// AUBoutique components. Callers should use errors.Is to match these values.
package common

import "errors"

var (

	// repository-level errors
	ErrNotFound = errors.New("not found")

	// generic service-level errors
	ErrInternal = errors.New("internal error")

	// account-specific errors
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")

	// catalog-specific errors
	ErrProductUnavailable = errors.New("product is not available")

	// presence / messaging errors
	ErrUserOffline    = errors.New("user is offline")
	ErrDeliveryFailed = errors.New("delivery failed")
)
