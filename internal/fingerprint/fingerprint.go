// Package fingerprint models the browser/device descriptor that the Gameforge
// web client submits with every login, including the rotating vector token.
package fingerprint

import (
	"slices"
	"time"
)

// Request is attached by the launcher once a game session exists.
type Request struct {
	Features     []uint64 `json:"features"`
	Installation string   `json:"installation"`
	Session      string   `json:"session"`
}

// Fingerprint describes one simulated browser. Field order here matches the
// positional wire order, see fields.go.
type Fingerprint struct {
	Version              uint32
	Timezone             string
	DoNotTrack           bool
	BrowserEngine        string
	OSName               string
	BrowserName          string
	Vendor               string
	Memory               uint32
	Concurrency          uint32
	Languages            string
	Plugins              string
	GPU                  string
	Fonts                string
	AudioContext         string
	Width                uint32
	Height               uint32
	ColorDepth           uint32
	VideoCodecs          string
	AudioCodecs          string
	MediaDevices         string
	NavigatorPermissions string
	AudioFingerprint     float64
	WebGLFingerprint     string
	CanvasFingerprint    float64
	Creation             time.Time
	Game                 string
	Delta                uint32
	OSVersion            *string
	Vector               Vector
	UserAgent            string
	ServerTime           time.Time
	Request              *Request
}

func (f *Fingerprint) UpdateVector(now time.Time) {
	if f.Vector.Content == "" {
		f.Vector = NewVector()
	}
	f.Vector.UpdateAt(now)
}

// UpdateServerTime stamps the server time. The web client reads it from the
// Date header of game1.js; the local clock is close enough.
func (f *Fingerprint) UpdateServerTime(now time.Time) {
	f.ServerTime = truncateMillis(now)
}

func (f *Fingerprint) UpdateDelta(timing TimingRange) {
	f.Delta = timing.Generate()
}

func (f *Fingerprint) UpdateCreation(now time.Time) {
	f.Creation = truncateMillis(now)
}

func (f *Fingerprint) SetRequest(req Request) {
	f.Request = &req
}

// Clone returns a deep copy that shares no memory with f.
func (f *Fingerprint) Clone() Fingerprint {
	out := *f
	if f.OSVersion != nil {
		v := *f.OSVersion
		out.OSVersion = &v
	}
	if f.Request != nil {
		req := *f.Request
		req.Features = slices.Clone(f.Request.Features)
		out.Request = &req
	}
	return out
}
