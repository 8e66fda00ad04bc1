package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListing_ElapsedDays(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &Listing{Visible: true, CreatedAt: createdAt}

	cases := []struct {
		name    string
		elapsed time.Duration
		want    int64
	}{
		{"creation instant", 0, 0},
		{"one millisecond short of a day", 24*time.Hour - time.Millisecond, 0},
		{"exactly one day", 24 * time.Hour, 1},
		{"nine and a half days", 9*24*time.Hour + 12*time.Hour, 9},
		{"clock skew before creation", -time.Hour, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, l.ElapsedDays(createdAt.Add(tc.elapsed)))
		})
	}
}

func TestListing_IsVisible_WindowBoundary(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &Listing{Visible: true, CreatedAt: createdAt}

	// Day 9 is the last visible day; the flip happens at the day-10 mark.
	require.True(t, l.IsVisible(createdAt.Add(9*24*time.Hour+23*time.Hour)))
	require.False(t, l.IsVisible(createdAt.Add(10*24*time.Hour)))
	require.False(t, l.IsVisible(createdAt.Add(12*24*time.Hour)))
}

func TestListing_IsVisible_HiddenFlagWins(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &Listing{Visible: false, CreatedAt: createdAt}

	require.False(t, l.IsVisible(createdAt.Add(time.Hour)))
}

func TestListing_ExpireIfStale(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &Listing{Visible: true, CreatedAt: createdAt}

	// Inside the window nothing happens.
	require.False(t, l.ExpireIfStale(createdAt.Add(5*24*time.Hour)))
	require.True(t, l.Visible)

	// Past the window the flip fires exactly once.
	require.True(t, l.ExpireIfStale(createdAt.Add(11*24*time.Hour)))
	require.False(t, l.Visible)
	require.False(t, l.ExpireIfStale(createdAt.Add(11*24*time.Hour)))
	require.False(t, l.Visible)

	// The transition never reverts, not even for an earlier timestamp.
	require.False(t, l.ExpireIfStale(createdAt.Add(time.Hour)))
	require.False(t, l.Visible)
}
