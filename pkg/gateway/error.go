package gateway

import "errors"

var (
	errMalformedCommand = errors.New("malformed order command")
	errUnknownAction    = errors.New("unknown order command action")
)
