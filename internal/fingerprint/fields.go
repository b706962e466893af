package fingerprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrFieldArity   = errors.New("fingerprint: field arity mismatch")
	ErrMissingField = errors.New("missing field")
	ErrNotArray     = errors.New("fingerprint: not a json array")
)

// FieldError reports a field that could not be decoded.
type FieldError struct {
	Index int
	Name  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("fingerprint: field %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// field binds one wire position to a Fingerprint member. Named JSON accepts
// either the canonical name or the short alias used by the web client.
type field struct {
	name     string
	alias    string
	optional bool
	get      func(f *Fingerprint) any
	set      func(f *Fingerprint, raw json.RawMessage) error
}

func bind[T any](name, alias string, ptr func(f *Fingerprint) *T) field {
	return field{
		name:  name,
		alias: alias,
		get:   func(f *Fingerprint) any { return *ptr(f) },
		set:   func(f *Fingerprint, raw json.RawMessage) error { return json.Unmarshal(raw, ptr(f)) },
	}
}

func bindTime(name, alias string, ptr func(f *Fingerprint) *time.Time) field {
	return field{
		name:  name,
		alias: alias,
		get:   func(f *Fingerprint) any { return formatTimestamp(*ptr(f)) },
		set: func(f *Fingerprint, raw json.RawMessage) error {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			t, err := parseTimestamp(s)
			if err != nil {
				return err
			}
			*ptr(f) = t
			return nil
		},
	}
}

func optional(fd field) field {
	fd.optional = true
	return fd
}

// fields is the canonical wire order. The trailing request entry is only
// emitted once a request has been attached.
var fields = []field{
	bind("version", "v", func(f *Fingerprint) *uint32 { return &f.Version }),
	bind("timezone", "tz", func(f *Fingerprint) *string { return &f.Timezone }),
	bind("do_not_track", "dnt", func(f *Fingerprint) *bool { return &f.DoNotTrack }),
	bind("browser_engine", "product", func(f *Fingerprint) *string { return &f.BrowserEngine }),
	bind("os_name", "osType", func(f *Fingerprint) *string { return &f.OSName }),
	bind("browser_name", "app", func(f *Fingerprint) *string { return &f.BrowserName }),
	bind("vendor", "vendor", func(f *Fingerprint) *string { return &f.Vendor }),
	bind("memory", "mem", func(f *Fingerprint) *uint32 { return &f.Memory }),
	bind("concurrency", "con", func(f *Fingerprint) *uint32 { return &f.Concurrency }),
	bind("languages", "lang", func(f *Fingerprint) *string { return &f.Languages }),
	bind("plugins", "plugins", func(f *Fingerprint) *string { return &f.Plugins }),
	bind("gpu", "", func(f *Fingerprint) *string { return &f.GPU }),
	bind("fonts", "", func(f *Fingerprint) *string { return &f.Fonts }),
	bind("audio_context", "audioC", func(f *Fingerprint) *string { return &f.AudioContext }),
	bind("width", "", func(f *Fingerprint) *uint32 { return &f.Width }),
	bind("height", "", func(f *Fingerprint) *uint32 { return &f.Height }),
	bind("color_depth", "depth", func(f *Fingerprint) *uint32 { return &f.ColorDepth }),
	bind("video_codecs", "video", func(f *Fingerprint) *string { return &f.VideoCodecs }),
	bind("audio_codecs", "audio", func(f *Fingerprint) *string { return &f.AudioCodecs }),
	bind("media_devices", "media", func(f *Fingerprint) *string { return &f.MediaDevices }),
	bind("navigator_permissions", "permissions", func(f *Fingerprint) *string { return &f.NavigatorPermissions }),
	bind("audio_fingerprint", "audioFP", func(f *Fingerprint) *float64 { return &f.AudioFingerprint }),
	bind("webgl_fingerprint", "webglFP", func(f *Fingerprint) *string { return &f.WebGLFingerprint }),
	bind("canvas_fingerprint", "canvasFP", func(f *Fingerprint) *float64 { return &f.CanvasFingerprint }),
	bindTime("creation", "", func(f *Fingerprint) *time.Time { return &f.Creation }),
	bind("game", "uuid", func(f *Fingerprint) *string { return &f.Game }),
	bind("delta", "d", func(f *Fingerprint) *uint32 { return &f.Delta }),
	optional(bind("os_version", "osVersion", func(f *Fingerprint) **string { return &f.OSVersion })),
	optional(bind("vector", "", func(f *Fingerprint) *Vector { return &f.Vector })),
	bind("user_agent", "userAgent", func(f *Fingerprint) *string { return &f.UserAgent }),
	bindTime("server_time", "serverTimeInMS", func(f *Fingerprint) *time.Time { return &f.ServerTime }),
	optional(bind("request", "", func(f *Fingerprint) **Request { return &f.Request })),
}

// MarshalTuple encodes f as the positional JSON array the web client emits.
func (f *Fingerprint) MarshalTuple() ([]byte, error) {
	n := len(fields)
	if f.Request == nil {
		n--
	}

	values := make([]any, n)
	for i := range values {
		values[i] = fields[i].get(f)
	}
	return encodeJSON(values)
}

// UnmarshalTuple decodes the positional JSON array into f.
func (f *Fingerprint) UnmarshalTuple(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	if len(raw) != len(fields) && len(raw) != len(fields)-1 {
		return fmt.Errorf("%w: got %d values, want %d or %d", ErrFieldArity, len(raw), len(fields)-1, len(fields))
	}

	var out Fingerprint
	for i, value := range raw {
		if err := fields[i].set(&out, value); err != nil {
			return &FieldError{Index: i, Name: fields[i].name, Err: err}
		}
	}

	*f = out
	return nil
}

// MarshalJSON writes the named form using canonical field names.
func (f Fingerprint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fd := range fields {
		if fd.name == "request" && f.Request == nil {
			continue
		}
		value, err := encodeJSON(fd.get(&f))
		if err != nil {
			return nil, fmt.Errorf("fingerprint: field %s: %w", fd.name, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + fd.name + `":`)
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the named form. Each field may appear under its
// canonical name or its alias; the canonical name wins if both are present.
func (f *Fingerprint) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	var out Fingerprint
	for i, fd := range fields {
		value, ok := obj[fd.name]
		if !ok && fd.alias != "" {
			value, ok = obj[fd.alias]
		}
		if !ok {
			if !fd.optional {
				return &FieldError{Index: i, Name: fd.name, Err: ErrMissingField}
			}
			if fd.name == "vector" {
				out.Vector = NewVector()
			}
			continue
		}
		if err := fd.set(&out, value); err != nil {
			return &FieldError{Index: i, Name: fd.name, Err: err}
		}
	}

	*f = out
	return nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators undoes encoding/json's escaping of U+2028 and
// U+2029, which JSON.stringify writes as raw UTF-8.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if esc := data[i:]; len(esc) >= 6 && (string(esc[:6]) == `\u2028` || string(esc[:6]) == `\u2029`) {
			if esc[5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}
