package fingerprint

import "time"

// jsTimestampLayout matches Date.prototype.toISOString.
const jsTimestampLayout = "2006-01-02T15:04:05.000Z"

// formatTimestamp renders t like the web client does. Sub-millisecond
// precision falls back to RFC 3339 with nanoseconds so nothing is lost.
func formatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()%int(time.Millisecond) == 0 {
		return t.Format(jsTimestampLayout)
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
