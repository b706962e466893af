package logging

import (
	"bytes"
	"fmt"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	lines []string
}

func (r *recorder) Log(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func TestWithPrefix(t *testing.T) {
	rec := &recorder{}
	l := WithPrefix(WithPrefix(rec, "auth"), "captcha")

	l.Log("attempt %d/%d", 1, 3)

	require.Len(t, rec.lines, 1)
	assert.Equal(t, "[auth] [captcha] attempt 1/3", rec.lines[0])
}

func TestOrNop(t *testing.T) {
	assert.NotPanics(t, func() {
		OrNop(nil).Log("dropped %s", "line")
		WithPrefix(nil, "x").Log("dropped")
	})

	rec := &recorder{}
	assert.Same(t, rec, OrNop(rec))
}

func TestLogrusAdapters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogrus("debug", &buf)
	require.NoError(t, err)

	entry := logger.WithField("component", "test")
	FromLogrus(entry).Log("POST %s -> %d", "/auth/sessions", 201)
	TLSClient(entry).Warn("handshake %s", "slow")
	TLSClient(entry).Debug("frame %d", 7)

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, `msg="POST /auth/sessions -> 201"`)
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, `msg="frame 7"`)
}

func TestNewLogrusLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogrus("warn", &buf)
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())

	FromLogrus(log.NewEntry(logger)).Log("hidden")
	assert.Empty(t, buf.String())

	_, err = NewLogrus("loud", &buf)
	assert.Error(t, err)
}
