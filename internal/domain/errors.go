package domain

import "errors"

var ErrUnknownTool = errors.New("unknown tool")
var ErrUnknownDomain = errors.New("unknown domain")
var ErrInvalidArguments = errors.New("invalid arguments")
var ErrMissingCredentials = errors.New("missing credentials")
var ErrIncompleteToolsets = errors.New("toolsets do not cover every domain")

// RemoteError is implemented by errors carrying a non-success API response.
type RemoteError interface {
	error
	HTTPStatus() int
}
