package logging

import (
	"fmt"
	"io"

	tls_client "github.com/bogdanfinn/tls-client"
	log "github.com/sirupsen/logrus"
)

// NewLogrus builds the CLI logger. Level names follow logrus.ParseLevel.
func NewLogrus(level string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger, nil
}

type logrusLogger struct {
	entry *log.Entry
}

func (l *logrusLogger) Log(format string, args ...any) {
	l.entry.Infof(format, args...)
}

// FromLogrus adapts a logrus entry, logging at info level.
func FromLogrus(entry *log.Entry) Logger {
	return &logrusLogger{entry: entry}
}

// tlsLogger feeds tls-client's internal logging into logrus.
type tlsLogger struct {
	entry *log.Entry
}

func (l *tlsLogger) Debug(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *tlsLogger) Info(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *tlsLogger) Warn(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *tlsLogger) Error(format string, args ...any) { l.entry.Errorf(format, args...) }

// TLSClient adapts a logrus entry to the tls-client logger interface.
func TLSClient(entry *log.Entry) tls_client.Logger {
	return &tlsLogger{entry: entry}
}
