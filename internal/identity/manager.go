package identity

import (
	"sync"
	"time"

	"gfauth/internal/blackbox"
	"gfauth/internal/fingerprint"
)

// Manager owns an identity and serialises the mutations that precede every
// blackbox. Callers do their network I/O outside the lock.
type Manager struct {
	mu       sync.Mutex
	identity Identity
	now      func() time.Time
	last     time.Time

	// saveMu orders writes of this identity to disk.
	saveMu sync.Mutex
}

func NewManager(id Identity) *Manager {
	return &Manager{identity: id, now: time.Now}
}

// GenerateBlackbox advances the time-derived fingerprint fields and returns a
// snapshot. Timestamps handed out by one manager strictly increase at
// millisecond granularity, so two calls never yield the same blackbox.
func (m *Manager) GenerateBlackbox() blackbox.Blackbox {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.tick()
	fp := &m.identity.Fingerprint
	fp.UpdateVector(now)
	fp.UpdateServerTime(now)
	fp.UpdateDelta(m.identity.Timing)
	fp.UpdateCreation(now)

	return blackbox.New(fp.Clone())
}

// AttachRequest adds the launcher request record to every following
// blackbox.
func (m *Manager) AttachRequest(session string, features []uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity.Fingerprint.SetRequest(fingerprint.Request{
		Features:     append([]uint64(nil), features...),
		Installation: m.identity.InstallationID.String(),
		Session:      session,
	})
}

// Snapshot returns a deep copy of the current identity, suitable for Save.
func (m *Manager) Snapshot() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.identity
	out.Fingerprint = m.identity.Fingerprint.Clone()
	return out
}

func (m *Manager) tick() time.Time {
	now := m.now().UTC().Truncate(time.Millisecond)
	if !now.After(m.last) {
		now = m.last.Add(time.Millisecond)
	}
	m.last = now
	return now
}
