package fingerprint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) Fingerprint {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	var fp Fingerprint
	require.NoError(t, json.Unmarshal(data, &fp))
	return fp
}

func TestUnmarshalJSONAliases(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")

	assert.Equal(t, uint32(7), fp.Version)
	assert.Equal(t, "Europe/Warsaw", fp.Timezone)
	assert.Equal(t, "Blink", fp.BrowserEngine)
	assert.Equal(t, uint32(16), fp.Concurrency)
	assert.Equal(t, uint32(24), fp.ColorDepth)
	assert.InDelta(t, 124.04347527516074, fp.AudioFingerprint, 1e-12)
	assert.InDelta(t, -1432561786.0, fp.CanvasFingerprint, 0)
	assert.Equal(t, "u6Zq0mC2rJ8xkT1pQ9vW3yN5bLd", fp.Game)
	assert.Equal(t, uint32(212), fp.Delta)
	require.NotNil(t, fp.OSVersion)
	assert.Equal(t, "10", *fp.OSVersion)
	assert.Len(t, fp.Vector.Content, VectorLength)
	assert.Equal(t, int64(1612174272345), fp.Vector.LastUpdate.UnixMilli())
	assert.Equal(t, time.Date(2021, 2, 1, 10, 11, 12, 345e6, time.UTC), fp.Creation)
	assert.Nil(t, fp.Request)
}

func TestUnmarshalJSONCanonicalWins(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")
	named, err := json.Marshal(fp)
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(named, &obj))
	obj["v"] = 1
	obj["version"] = 9
	data, err := json.Marshal(obj)
	require.NoError(t, err)

	var got Fingerprint
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, uint32(9), got.Version)
}

func TestUnmarshalJSONMissingVector(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")
	named, err := json.Marshal(fp)
	require.NoError(t, err)

	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(named, &obj))
	delete(obj, "vector")
	data, err := json.Marshal(obj)
	require.NoError(t, err)

	var got Fingerprint
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got.Vector.Content, VectorLength)
	assert.WithinDuration(t, time.Now(), got.Vector.LastUpdate, time.Second)
}

func TestUnmarshalJSONMissingField(t *testing.T) {
	var got Fingerprint
	err := json.Unmarshal([]byte(`{"v":1}`), &got)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, 1, fieldErr.Index)
	assert.Equal(t, "timezone", fieldErr.Name)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestNamedJSONRoundTrip(t *testing.T) {
	for _, name := range []string{"fingerprint_aliases.json", "fingerprint_with_request.json"} {
		t.Run(name, func(t *testing.T) {
			fp := loadFixture(t, name)

			data, err := json.Marshal(fp)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"user_agent":`)
			assert.NotContains(t, string(data), `"userAgent":`)

			var got Fingerprint
			require.NoError(t, json.Unmarshal(data, &got))
			assertSameFingerprint(t, fp, got)
		})
	}
}

func TestMarshalTuple(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")

	data, err := fp.MarshalTuple()
	require.NoError(t, err)

	var values []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &values))
	require.Len(t, values, len(fields)-1)
	assert.JSONEq(t, `7`, string(values[0]))
	assert.JSONEq(t, `"Europe/Warsaw"`, string(values[1]))
	assert.JSONEq(t, `"2021-02-01T10:11:12.345Z"`, string(values[24]))
	assert.JSONEq(t, `"10"`, string(values[27]))
	assert.JSONEq(t, `"`+fp.Vector.Encode()+`"`, string(values[28]))
	assert.JSONEq(t, `"2021-02-01T10:11:12.000Z"`, string(values[30]))

	fp.SetRequest(Request{Features: []uint64{1, 2}, Installation: "i", Session: "s"})
	data, err = fp.MarshalTuple()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &values))
	require.Len(t, values, len(fields))
	assert.JSONEq(t, `{"features":[1,2],"installation":"i","session":"s"}`, string(values[31]))
}

func TestMarshalTupleNoHTMLEscaping(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")
	fp.GPU = "<ANGLE & co>"

	data, err := fp.MarshalTuple()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"<ANGLE & co>"`)
}

func TestMarshalTupleLineSeparators(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")
	fp.Timezone = "a\u2028b\u2029c"
	fp.GPU = `literal \u2028 text`

	data, err := fp.MarshalTuple()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[7,\"a\u2028b\u2029c\","))
	assert.Contains(t, string(data), `"literal \\u2028 text"`)

	var got Fingerprint
	require.NoError(t, got.UnmarshalTuple(data))
	assert.Equal(t, fp.Timezone, got.Timezone)
	assert.Equal(t, fp.GPU, got.GPU)
}

func TestTupleRoundTrip(t *testing.T) {
	for _, name := range []string{"fingerprint_aliases.json", "fingerprint_with_request.json"} {
		t.Run(name, func(t *testing.T) {
			fp := loadFixture(t, name)

			data, err := fp.MarshalTuple()
			require.NoError(t, err)

			var got Fingerprint
			require.NoError(t, got.UnmarshalTuple(data))
			assertSameFingerprint(t, fp, got)
		})
	}
}

func TestTupleNullOSVersion(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")
	fp.OSVersion = nil

	data, err := fp.MarshalTuple()
	require.NoError(t, err)
	assert.Contains(t, string(data), `,null,`)

	var got Fingerprint
	require.NoError(t, got.UnmarshalTuple(data))
	assert.Nil(t, got.OSVersion)
}

func TestUnmarshalTupleErrors(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")
	data, err := fp.MarshalTuple()
	require.NoError(t, err)

	var values []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &values))

	t.Run("not an array", func(t *testing.T) {
		var got Fingerprint
		assert.ErrorIs(t, got.UnmarshalTuple([]byte(`{"v":1}`)), ErrNotArray)
	})

	t.Run("too short", func(t *testing.T) {
		short, err := json.Marshal(values[:10])
		require.NoError(t, err)

		var got Fingerprint
		assert.ErrorIs(t, got.UnmarshalTuple(short), ErrFieldArity)
	})

	t.Run("too long", func(t *testing.T) {
		long := append(append([]json.RawMessage{}, values...), json.RawMessage(`null`), json.RawMessage(`1`))
		data, err := json.Marshal(long)
		require.NoError(t, err)

		var got Fingerprint
		assert.ErrorIs(t, got.UnmarshalTuple(data), ErrFieldArity)
	})

	t.Run("wrong type", func(t *testing.T) {
		broken := append([]json.RawMessage{}, values...)
		broken[14] = json.RawMessage(`"wide"`)
		data, err := json.Marshal(broken)
		require.NoError(t, err)

		var got Fingerprint
		err = got.UnmarshalTuple(data)
		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, 14, fieldErr.Index)
		assert.Equal(t, "width", fieldErr.Name)
	})
}

func TestFingerprintUpdates(t *testing.T) {
	fp := loadFixture(t, "fingerprint_aliases.json")
	now := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)

	fp.UpdateVector(now)
	fp.UpdateServerTime(now)
	fp.UpdateCreation(now)
	fp.UpdateDelta(TimingRange{Min: 10, Max: 11})

	want := now.Truncate(time.Millisecond)
	assert.Equal(t, want, fp.ServerTime)
	assert.Equal(t, want, fp.Creation)
	assert.Equal(t, want.UnixMilli(), fp.Vector.LastUpdate.UnixMilli())
	assert.Equal(t, uint32(10), fp.Delta)
}

func TestFingerprintClone(t *testing.T) {
	fp := loadFixture(t, "fingerprint_with_request.json")

	clone := fp.Clone()
	*clone.OSVersion = "11"
	clone.Request.Features[0] = 0
	clone.Request.Session = "other"

	assert.Equal(t, "10", *fp.OSVersion)
	assert.Equal(t, uint64(3123817436), fp.Request.Features[0])
	assert.NotEqual(t, "other", fp.Request.Session)
}

func TestTimestampFormat(t *testing.T) {
	ms := time.Date(2021, 2, 1, 10, 11, 12, 5e6, time.UTC)
	assert.Equal(t, "2021-02-01T10:11:12.005Z", formatTimestamp(ms))

	ns := ms.Add(7)
	s := formatTimestamp(ns)
	assert.True(t, strings.HasSuffix(s, "Z"))
	parsed, err := parseTimestamp(s)
	require.NoError(t, err)
	assert.True(t, ns.Equal(parsed))
}

func assertSameFingerprint(t *testing.T, want, got Fingerprint) {
	t.Helper()
	assert.True(t, want.Vector.Equal(got.Vector), "vector differs")
	want.Vector, got.Vector = Vector{}, Vector{}
	assert.Equal(t, want, got)
}
