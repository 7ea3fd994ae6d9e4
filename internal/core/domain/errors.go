package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Credential errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserInactive      = errors.New("user account is inactive")
	ErrMalformedHash     = errors.New("stored password hash is malformed")
)

// Session token errors
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrMalformedToken   = errors.New("token malformed")
	ErrTokenRevoked     = errors.New("token revoked")
)

// MFA errors
var (
	ErrNotEnrolled        = errors.New("mfa not enrolled")
	ErrAlreadyEnrolled    = errors.New("mfa already enabled")
	ErrInvalidMFACode     = errors.New("invalid mfa code")
	ErrBackupCodeUsed     = errors.New("backup code already used")
	ErrUnsupportedMethod  = errors.New("unsupported mfa method")
	ErrEnrollmentNotFound = errors.New("no pending mfa enrollment")
)

// OAuth errors
var (
	ErrProviderVerification = errors.New("provider rejected token or code")
	ErrAlreadyLinked        = errors.New("provider account linked to another user")
	ErrCSRFValidation       = errors.New("oauth state missing or mismatched")
	ErrUnknownProvider      = errors.New("unknown oauth provider")
)
