// Package identity holds the persisted login identity and hands out fresh
// blackboxes built from it.
package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gfauth/internal/fingerprint"
)

var ErrMissingFingerprint = errors.New("identity: missing fingerprint")

// Identity is one simulated installation of the launcher.
type Identity struct {
	Timing         fingerprint.TimingRange
	Fingerprint    fingerprint.Fingerprint
	InstallationID uuid.UUID
}

// New returns an identity around fp with default timing and a random
// installation id.
func New(fp fingerprint.Fingerprint) Identity {
	return Identity{
		Timing:         fingerprint.DefaultTimingRange(),
		Fingerprint:    fp,
		InstallationID: uuid.New(),
	}
}

func (id Identity) Validate() error {
	if err := id.Timing.Validate(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	return nil
}

type identityFile struct {
	Timing            *fingerprint.TimingRange `json:"timing,omitempty"`
	Fingerprint       json.RawMessage          `json:"fingerprint,omitempty"`
	InstallationID    *uuid.UUID               `json:"installationId,omitempty"`
	InstallationIDAlt *uuid.UUID               `json:"installation_id,omitempty"`
}

func (id Identity) MarshalJSON() ([]byte, error) {
	fp, err := json.Marshal(id.Fingerprint)
	if err != nil {
		return nil, err
	}
	return json.Marshal(identityFile{
		Timing:         &id.Timing,
		Fingerprint:    fp,
		InstallationID: &id.InstallationID,
	})
}

// UnmarshalJSON fills a missing timing range with the default and a missing
// installation id with a random one.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var file identityFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if len(file.Fingerprint) == 0 || bytes.Equal(file.Fingerprint, []byte("null")) {
		return ErrMissingFingerprint
	}

	out := New(fingerprint.Fingerprint{})
	if err := json.Unmarshal(file.Fingerprint, &out.Fingerprint); err != nil {
		return fmt.Errorf("identity: fingerprint: %w", err)
	}
	if file.Timing != nil {
		out.Timing = *file.Timing
	}
	switch {
	case file.InstallationID != nil:
		out.InstallationID = *file.InstallationID
	case file.InstallationIDAlt != nil:
		out.InstallationID = *file.InstallationIDAlt
	}

	*id = out
	return nil
}

// Load reads and validates an identity file.
func Load(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: read %s: %w", path, err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("identity: parse %s: %w", path, err)
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Save writes the identity as indented JSON, replacing path atomically with
// a mode 0600 file. Each call stages into its own temp file next to path.
func Save(path string, id Identity) error {
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("identity: create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("identity: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("identity: write %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("identity: rename %s: %w", tmp.Name(), err)
	}
	return nil
}
