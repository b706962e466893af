// Package blackbox implements the obfuscated fingerprint encoding submitted
// as the "blackbox" field of a Gameforge login.
package blackbox

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"gfauth/internal/fingerprint"
)

// Prefix starts every encoded blackbox.
const Prefix = "tra:"

// Blackbox wraps the fingerprint snapshot that gets encoded.
type Blackbox struct {
	Fingerprint fingerprint.Fingerprint
}

func New(fp fingerprint.Fingerprint) Blackbox {
	return Blackbox{Fingerprint: fp}
}

// Encode produces the wire string:
//
//	tra: + base64url(runningSum(encodeURIComponent(tupleJSON)))
func (b Blackbox) Encode() (string, error) {
	tuple, err := b.Fingerprint.MarshalTuple()
	if err != nil {
		return "", fmt.Errorf("blackbox: encode fingerprint: %w", err)
	}

	escaped := escapeURIComponent(tuple)
	return Prefix + base64.RawURLEncoding.EncodeToString(obfuscate(escaped)), nil
}

// Decode reverses Encode. Nothing authenticates the payload, so tampering
// only shows up as a JSON, arity or field error.
func Decode(wire string) (Blackbox, error) {
	payload, ok := strings.CutPrefix(wire, Prefix)
	if !ok {
		return Blackbox{}, ErrMissingPrefix
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Blackbox{}, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	if len(raw) == 0 {
		return Blackbox{}, ErrEmptyPayload
	}

	tuple := unescapeURIComponent(deobfuscate(raw))
	if !utf8.Valid(tuple) {
		return Blackbox{}, ErrInvalidUTF8
	}

	var fp fingerprint.Fingerprint
	if err := fp.UnmarshalTuple(tuple); err != nil {
		return Blackbox{}, fmt.Errorf("blackbox: decode fingerprint: %w", err)
	}
	return Blackbox{Fingerprint: fp}, nil
}

func (b Blackbox) MarshalJSON() ([]byte, error) {
	wire, err := b.Encode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

func (b *Blackbox) UnmarshalJSON(data []byte) error {
	var wire string
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	decoded, err := Decode(wire)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}
