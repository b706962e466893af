package blackbox

import "errors"

var (
	ErrMissingPrefix = errors.New("blackbox: missing " + Prefix + " prefix")
	ErrInvalidBase64 = errors.New("blackbox: invalid base64")
	ErrEmptyPayload  = errors.New("blackbox: empty payload")
	ErrInvalidUTF8   = errors.New("blackbox: payload is not valid utf-8")
)
