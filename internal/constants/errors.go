package constants

import "errors"

// Configuration errors.
var (
	ErrNoEndpointConfigured = errors.New("no endpoint configured for service")
	ErrInvalidEndpoint      = errors.New("invalid service endpoint")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
	ErrTokenFieldsCannotSet = errors.New("token fields cannot be set via config command, use 'stackapi login'")
)

// Authentication errors.
var (
	ErrNotAuthenticated   = errors.New("not authenticated, use 'stackapi login' first")
	ErrNoSubjectToken     = errors.New("identity response carried no subject token")
	ErrCredentialsMissing = errors.New("username and password are required")
)

// Command argument errors.
var (
	ErrUnknownService    = errors.New("unknown service")
	ErrInvalidOutput     = errors.New("invalid output format")
	ErrInvalidJSONBody   = errors.New("request body is not valid JSON")
	ErrPoolIDRequired    = errors.New("--pool flag is required")
	ErrMemberAddrMissing = errors.New("--address flag is required")
	ErrUnknownConsole    = errors.New("unknown console type")
)
