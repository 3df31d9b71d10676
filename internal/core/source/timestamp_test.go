package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2030-01-01T00:00:00Z", want: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
		{input: "2030-01-01T00:00:00.123Z", want: time.Date(2030, 1, 1, 0, 0, 0, 123000000, time.UTC)},
		{input: "2030-03-11T02:00:00+05:00", want: time.Date(2030, 3, 10, 21, 0, 0, 0, time.UTC)},
		{input: "2030-03-11T02:00:00+0500", want: time.Date(2030, 3, 10, 21, 0, 0, 0, time.UTC)},
		{input: "2030-06-15T08:30:00", want: time.Date(2030, 6, 15, 8, 30, 0, 0, time.UTC)},
		{input: "2030-06-15 08:30:00", want: time.Date(2030, 6, 15, 8, 30, 0, 0, time.UTC)},
		{input: "2030-06-15", want: time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)},
		{input: "15-Jun-2030", want: time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)},
		{input: "2030.06.15", want: time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)},
		{input: " 2030/06/15 ", want: time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseTimestamp(tc.input)
			require.NoError(t, err)
			require.True(t, tc.want.Equal(got), "got %s", got)
			require.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := ParseTimestamp("")
	require.Error(t, err)

	_, err = ParseTimestamp("next tuesday")
	require.Error(t, err)
}
