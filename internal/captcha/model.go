package captcha

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPresented Status = "presented"
	StatusSolved    Status = "solved"
)

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch Status(raw) {
	case StatusPresented, StatusSolved:
		*s = Status(raw)
		return nil
	default:
		return fmt.Errorf("unknown challenge status %q", raw)
	}
}

// Challenge is the state of one image-drop challenge.
type Challenge struct {
	ID          uuid.UUID
	LastUpdated time.Time
	Status      Status
}

type challengeJSON struct {
	ID          uuid.UUID `json:"id"`
	LastUpdated int64     `json:"lastUpdated"`
	Status      Status    `json:"status"`
}

func (c Challenge) MarshalJSON() ([]byte, error) {
	return json.Marshal(challengeJSON{
		ID:          c.ID,
		LastUpdated: c.LastUpdated.UnixMilli(),
		Status:      c.Status,
	})
}

// UnmarshalJSON reads lastUpdated as epoch milliseconds.
func (c *Challenge) UnmarshalJSON(data []byte) error {
	var raw challengeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Challenge{
		ID:          raw.ID,
		LastUpdated: time.UnixMilli(raw.LastUpdated).UTC(),
		Status:      raw.Status,
	}
	return nil
}

type answerRequest struct {
	Answer int `json:"answer"`
}
