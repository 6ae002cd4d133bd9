// internal/menu/datefilter_test.go
package menu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppliesToday(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-01-11, venue-local.
	now := time.Date(2024, time.January, 11, 12, 0, 0, 0, loc)

	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{name: "no bounds always applies", from: "", to: "", want: true},
		{name: "inside inclusive range", from: "2024-01-10", to: "2024-01-12", want: true},
		{name: "range start day", from: "2024-01-11", to: "2024-01-12", want: true},
		{name: "range end day", from: "2024-01-10", to: "2024-01-11", want: true},
		{name: "before range", from: "2024-01-12", to: "2024-01-14", want: false},
		{name: "after range", from: "2024-01-08", to: "2024-01-10", want: false},
		{name: "only from matches today exactly", from: "2024-01-11", to: "", want: true},
		{name: "only from on another day", from: "2024-01-10", to: "", want: false},
		{name: "only to matches today exactly", from: "", to: "2024-01-11", want: true},
		{name: "only to on another day", from: "", to: "2024-01-12", want: false},
		{name: "timestamp bounds", from: "2024-01-11T00:00:00", to: "2024-01-11T23:59:59", want: true},
		{name: "unparseable bounds fail open", from: "next tuesday", to: "garbage", want: true},
		{name: "one unparseable bound treated as absent", from: "garbage", to: "2024-01-11", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := RawFragment{DateFrom: tt.from, DateTo: tt.to}
			assert.Equal(t, tt.want, appliesToday(f, now, loc))
		})
	}
}

func TestAppliesToday_ZoneAwareBoundNormalizedToVenueDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	now := time.Date(2024, time.January, 11, 12, 0, 0, 0, loc)

	// 2024-01-12T02:00:00Z is still January 11th in New York.
	f := RawFragment{DateFrom: "2024-01-12T02:00:00Z"}
	assert.True(t, appliesToday(f, now, loc))
}

func TestParseVenueDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		key   int
		ok    bool
	}{
		{name: "bare date", input: "2024-01-11", key: 20240111, ok: true},
		{name: "offset-less timestamp", input: "2024-01-11T09:30:00", key: 20240111, ok: true},
		{name: "rfc3339 shifted into venue day", input: "2024-01-12T02:00:00Z", key: 20240111, ok: true},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "soon", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := parseVenueDate(tt.input, loc)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.key, key)
			}
		})
	}
}
