package snowflake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	id, err := Parse("175928847299117063")
	require.NoError(t, err)
	assert.Equal(t, "175928847299117063", id.String())
}

func TestParseEmpty(t *testing.T) {
	id, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, ID(0), id)
}

func TestTimestamp(t *testing.T) {
	// Known flake from Discord's own developer documentation example.
	id := MustParse("175928847299117063")
	got := id.Timestamp()
	want := time.Date(2016, 4, 30, 11, 18, 25, 796000000, time.UTC)
	assert.WithinDuration(t, want, got, time.Millisecond)
}

func TestFromTimeRoundTrip(t *testing.T) {
	// datetime -> FromTime (smallest flake for that millisecond) -> datetime
	// agrees at millisecond granularity.
	now := time.Now().UTC().Truncate(time.Millisecond)
	id := FromTime(now)
	assert.WithinDuration(t, now, id.Timestamp(), time.Millisecond)
}

func TestMinMax(t *testing.T) {
	a, b := ID(100), ID(200)
	assert.Equal(t, a, Min(a, b))
	assert.Equal(t, b, Max(a, b))
}

func TestJSONRoundTrip(t *testing.T) {
	id := MustParse("123456789012345678")
	data, err := id.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"123456789012345678"`, string(data))

	var out ID
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, id, out)
}
