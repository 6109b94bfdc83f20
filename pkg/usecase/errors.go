package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrBlobStoreNotConfigured     = goerr.New("blob store is not configured")
	ErrAuthenticatorNotConfigured = goerr.New("authenticator is not configured")

	errFileTooLarge = goerr.New("file exceeds upload limit")
)

// Context keys for error values
const (
	ActorKey = "actor"
	SizeKey  = "size"
)
