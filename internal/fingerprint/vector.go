package fingerprint

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// VectorLength is the content length of a freshly generated vector.
	VectorLength = 100

	// vectorRotateInterval is the minimum age before update rotates content.
	vectorRotateInterval = time.Second
)

var (
	ErrVectorBase64    = errors.New("vector: invalid base64")
	ErrVectorUTF8      = errors.New("vector: invalid utf-8")
	ErrVectorSeparator = errors.New("vector: missing separator")
	ErrVectorTimestamp = errors.New("vector: invalid timestamp")
)

// Vector is the rotating anti-replay token embedded in every fingerprint.
// The web client drops its first character and appends a random one at
// most once per second, so two blackboxes built within the same second
// share the same content.
type Vector struct {
	Content    string
	LastUpdate time.Time
}

// NewVector returns a vector with random content stamped with the current time.
func NewVector() Vector {
	return Vector{
		Content:    randomASCIIString(VectorLength),
		LastUpdate: truncateMillis(time.Now()),
	}
}

// Update rotates the vector against the wall clock.
func (v *Vector) Update() {
	v.UpdateAt(time.Now())
}

// UpdateAt rotates the content if at least one second passed since the last
// update. The timestamp always moves to now.
func (v *Vector) UpdateAt(now time.Time) {
	now = truncateMillis(now)
	if now.Sub(v.LastUpdate) >= vectorRotateInterval && v.Content != "" {
		_, size := utf8.DecodeRuneInString(v.Content)
		v.Content = v.Content[size:] + string(randomASCIIChar())
	}
	v.LastUpdate = now
}

// Equal reports whether both vectors have the same content and the same
// timestamp at millisecond precision.
func (v Vector) Equal(o Vector) bool {
	return v.Content == o.Content && v.LastUpdate.UnixMilli() == o.LastUpdate.UnixMilli()
}

// String returns the text form "<content> <epoch_millis>".
func (v Vector) String() string {
	return v.Content + " " + strconv.FormatInt(v.LastUpdate.UnixMilli(), 10)
}

// Encode returns the wire form: the text form in padded standard base64.
func (v Vector) Encode() string {
	return base64.StdEncoding.EncodeToString([]byte(v.String()))
}

// DecodeVector parses the wire form produced by Encode.
func DecodeVector(wire string) (Vector, error) {
	raw, err := base64.StdEncoding.DecodeString(wire)
	if err != nil {
		return Vector{}, fmt.Errorf("%w: %v", ErrVectorBase64, err)
	}
	if !utf8.Valid(raw) {
		return Vector{}, ErrVectorUTF8
	}
	return ParseVector(string(raw))
}

// ParseVector parses the text form. The timestamp follows the last space so
// content may itself contain spaces.
func ParseVector(text string) (Vector, error) {
	idx := strings.LastIndexByte(text, ' ')
	if idx < 0 {
		return Vector{}, ErrVectorSeparator
	}

	raw := text[idx+1:]
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Vector{}, fmt.Errorf("%w: %q", ErrVectorTimestamp, raw)
	}
	ts := time.UnixMilli(millis).UTC()
	if ts.Year() < 0 || ts.Year() > 9999 {
		return Vector{}, fmt.Errorf("%w: %d out of range", ErrVectorTimestamp, millis)
	}

	return Vector{Content: text[:idx], LastUpdate: ts}, nil
}

func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Encode())
}

// UnmarshalJSON accepts the wire form. A JSON null yields a fresh vector.
func (v *Vector) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NewVector()
		return nil
	}

	var wire string
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	decoded, err := DecodeVector(wire)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func truncateMillis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
