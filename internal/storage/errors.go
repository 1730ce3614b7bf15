package storage

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant is not found
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTokenNotFound is returned when an access token is not found
	ErrTokenNotFound = errors.New("access token not found")

	// ErrModelNotFound is returned when a catalog model is not found
	ErrModelNotFound = errors.New("model not found")

	// ErrCredentialNotFound is returned when no credential is vaulted
	// for a provider. This is the "not configured" case, distinct from
	// a decryption failure.
	ErrCredentialNotFound = errors.New("provider credential not found")

	// ErrAdminUserNotFound is returned when an admin user is not found
	ErrAdminUserNotFound = errors.New("admin user not found")

	// ErrInsufficientBalance is returned when a debit would take the
	// advanced balance below zero. The conditional update rejects the
	// mutation and no transaction row is written.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDecryptionFailed is returned when vaulted ciphertext cannot be
	// opened with the current master key. Treated as a data-integrity
	// fault, never silently swallowed.
	ErrDecryptionFailed = errors.New("credential decryption failed")
)
