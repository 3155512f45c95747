// Package snowflake converts the platform's 64-bit flake IDs to timestamps
// and back. Numeric ID comparison is chronological comparison; the sync
// engine and the channel fetcher both rely on that equivalence.
package snowflake

import (
	"strconv"
	"time"
)

// DiscordEpoch is 2015-01-01T00:00:00Z in Unix milliseconds, the zero point
// every flake's timestamp bits are relative to.
const DiscordEpoch int64 = 1420070400000

// ID is a flake: a uint64 whose high 42 bits are a millisecond timestamp
// relative to DiscordEpoch. The wire format is a JSON string (the value
// overflows a float64's safe integer range), so ID implements its own
// (Un)MarshalJSON.
type ID uint64

// Parse converts a decimal string to an ID. An empty string yields zero.
func Parse(s string) (ID, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// MustParse is Parse without an error return, for constants and tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// MarshalJSON encodes the ID as a JSON string, matching the wire format the
// platform itself uses for every snowflake field.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a JSON number, since some
// DTO fields (notably permission masks reused as IDs in test fixtures) are
// not always quoted by every producer.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// Timestamp extracts the creation time encoded in the flake's high bits.
func (id ID) Timestamp() time.Time {
	ms := int64(id>>22) + DiscordEpoch
	return time.UnixMilli(ms).UTC()
}

// FromTime computes the smallest flake whose embedded timestamp is t,
// usable as a `before`/`after` cursor when only a point in time is known.
// t must carry timezone information; callers should pass a UTC value.
func FromTime(t time.Time) ID {
	ms := t.UnixMilli() - DiscordEpoch
	if ms < 0 {
		ms = 0
	}
	return ID(ms << 22)
}

// Min returns the lesser of a and b.
func Min(a, b ID) ID {
	if a < b {
		return a
	}
	return b
}

// Max returns the greater of a and b.
func Max(a, b ID) ID {
	if a > b {
		return a
	}
	return b
}
