package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	t.Run("Zero", func(t *testing.T) {
		var v Value
		assert.True(t, v.IsAbsent())
		assert.True(t, v.IsEmpty())
		assert.Equal(t, "", v.String())
	})

	t.Run("Number", func(t *testing.T) {
		v := NumberValue(150.5)
		f, ok := v.Float()
		require.True(t, ok)
		assert.InDelta(t, 150.5, f, 0)
		assert.Equal(t, "150.5", v.String())
		assert.Equal(t, "1000000", NumberValue(1000000).String())
		assert.False(t, v.IsEmpty())
	})

	t.Run("String", func(t *testing.T) {
		v := StringValue("#N/A")
		s, ok := v.Text()
		require.True(t, ok)
		assert.Equal(t, "#N/A", s)
		assert.True(t, StringValue("").IsEmpty())
		assert.False(t, StringValue("").IsAbsent())
	})

	t.Run("Equal", func(t *testing.T) {
		assert.True(t, NumberValue(123.45).Equal(NumberValue(123.45)))
		assert.False(t, NumberValue(150).Equal(StringValue("150")))
		assert.True(t, Value{}.Equal(Value{}))
	})

	t.Run("ParseValue", func(t *testing.T) {
		assert.True(t, ParseValue("150.50").Equal(NumberValue(150.5)))
		assert.True(t, ParseValue(" 42 ").Equal(NumberValue(42)))
		assert.True(t, ParseValue("Loading...").Equal(StringValue("Loading...")))
		assert.True(t, ParseValue("Inf").Equal(StringValue("Inf")))
		assert.True(t, ParseValue("").Equal(StringValue("")))
	})

	t.Run("JSON", func(t *testing.T) {
		for _, v := range []Value{NumberValue(150.5), StringValue("Alphabet Inc"), {}} {
			encoded, err := json.Marshal(v)
			require.NoError(t, err)

			var decoded Value
			require.NoError(t, json.Unmarshal(encoded, &decoded))
			assert.True(t, v.Equal(decoded), "round trip of %s", encoded)
		}

		var bad Value
		assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
	})
}

func TestCacheEntry(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	entry := NewCacheEntry("nasdaq:googl", "PRICE", NumberValue(150.5), "2024-01-02", now)

	assert.Equal(t, "NASDAQ:GOOGL", entry.Symbol)
	assert.Equal(t, "price", entry.Attribute)
	assert.Equal(t, now.UnixMilli(), entry.Timestamp)
	assert.Equal(t, 90*time.Minute, entry.Age(now.Add(90*time.Minute)))

	t.Run("Expiration", func(t *testing.T) {
		assert.False(t, entry.IsExpired(24*time.Hour, now.Add(24*time.Hour)))
		assert.True(t, entry.IsExpired(24*time.Hour, now.Add(25*time.Hour)))
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		raw, err := entry.Encode()
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"value":150.5,"timestamp":1704207600000,"date":"2024-01-02","symbol":"NASDAQ:GOOGL","attribute":"price"}`,
			raw)

		decoded, err := DecodeCacheEntry(raw)
		require.NoError(t, err)
		assert.Equal(t, entry.Date, decoded.Date)
		assert.True(t, entry.Value.Equal(decoded.Value))
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := DecodeCacheEntry("{not json")
		assert.ErrorIs(t, err, ErrMalformedEntry)
	})
}

func TestIsExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, IsExpired(now.UnixMilli(), time.Second, now))
	assert.True(t, IsExpired(now.Add(-2*time.Second).UnixMilli(), time.Second, now))
}

func TestTTLConfig(t *testing.T) {
	t.Run("Env", func(t *testing.T) {
		t.Setenv(EnvFastTTL, "1h")
		assert.Equal(t, time.Hour, GetFastTTLFromEnv(DefaultFastTTL))

		t.Setenv(EnvFastTTL, "bogus")
		assert.Equal(t, DefaultFastTTL, GetFastTTLFromEnv(DefaultFastTTL))

		t.Setenv(EnvFastMaxEntries, "10")
		assert.Equal(t, 10, GetFastMaxEntriesFromEnv(DefaultFastMaxEntries))

		t.Setenv(EnvFastMaxEntries, "-3")
		assert.Equal(t, DefaultFastMaxEntries, GetFastMaxEntriesFromEnv(DefaultFastMaxEntries))
	})

	t.Run("Unset", func(t *testing.T) {
		t.Setenv(EnvFastTTL, "")
		assert.Equal(t, DefaultFastTTL, GetFastTTLFromEnv(DefaultFastTTL))
	})

	t.Run("FormatDuration", func(t *testing.T) {
		assert.Equal(t, "30s", FormatDuration(30*time.Second))
		assert.Equal(t, "5m", FormatDuration(5*time.Minute))
		assert.Equal(t, "6h", FormatDuration(6*time.Hour))
		assert.Equal(t, "2h30m", FormatDuration(2*time.Hour+30*time.Minute))
		assert.Equal(t, "3d", FormatDuration(72*time.Hour))
		assert.Equal(t, "3d2h", FormatDuration(74*time.Hour))
	})

	t.Run("ParseTTL", func(t *testing.T) {
		ttl, err := ParseTTL("21600")
		require.NoError(t, err)
		assert.Equal(t, 6*time.Hour, ttl)

		ttl, err = ParseTTL("24h")
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, ttl)

		_, err = ParseTTL("invalid")
		assert.Error(t, err)

		_, err = ParseTTL("0")
		assert.ErrorIs(t, err, ErrInvalidTTL)
	})
}
