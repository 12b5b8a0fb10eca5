package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"plain date", "12.03.2025", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), true},
		{"surrounding label", "veröffentlicht am 12.03.2025", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), true},
		{"single digit day and month", "1.3.2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"leading whitespace", "  28.02.2024", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), true},
		{"empty string", "", time.Time{}, false},
		{"no date", "online", time.Time{}, false},
		{"iso format", "2025-03-12", time.Time{}, false},
		{"impossible day", "32.01.2025", time.Time{}, false},
		{"impossible month", "12.13.2025", time.Time{}, false},
		{"year out of range", "12.03.9999", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("01.01.2025"))
	assert.False(t, Valid("N/A"))
	assert.False(t, Valid(""))
}

func TestFormatRoundTrip(t *testing.T) {
	d := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	formatted := Format(d)
	assert.Equal(t, "03.11.2025", formatted)

	parsed, ok := Parse(formatted)
	require.True(t, ok)
	assert.True(t, parsed.Equal(d))
}

func TestToday(t *testing.T) {
	assert.True(t, Valid(Today()))
}

func TestTruncate(t *testing.T) {
	at := time.Date(2025, 6, 15, 13, 45, 30, 999, time.UTC)
	got := Truncate(at)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare("01.01.2025", "02.01.2025"))
	assert.Equal(t, 1, Compare("15.06.2025", "14.06.2025"))
	assert.Equal(t, 0, Compare("01.01.2025", "01.01.2025"))
	// Unparseable sides compare equal.
	assert.Equal(t, 0, Compare("N/A", "01.01.2025"))
	assert.Equal(t, 0, Compare("01.01.2025", ""))
}
