package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPeriodsPerYear(t *testing.T) {
	cases := map[Frequency]int64{
		Daily:     365,
		Weekly:    52,
		BiWeekly:  26,
		Monthly:   12,
		Quarterly: 4,
		Yearly:    1,
	}
	for f, want := range cases {
		got, err := PeriodsPerYear(f)
		require.NoError(t, err)
		require.Equal(t, want, got, "frequency %s", f)
	}

	_, err := PeriodsPerYear(Frequency("fortnightly"))
	require.Error(t, err)
	require.False(t, Valid("fortnightly"))
}

func TestNext(t *testing.T) {
	base := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	require.Equal(t, base.AddDate(0, 0, 1), Next(Daily, base))
	require.Equal(t, base.AddDate(0, 0, 14), Next(BiWeekly, base))
	require.Equal(t, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), Next(Monthly, base))
	require.Equal(t, time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC), Next(Yearly, base))
}

func TestInstancesBetween(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC)

	got := InstancesBetween(Monthly, start, from, to)
	require.Len(t, got, 3)
	require.Equal(t, time.March, got[0].Month())
	require.Equal(t, time.May, got[2].Month())

	// inclusive bounds
	got = InstancesBetween(Monthly, start, start, start)
	require.Len(t, got, 1)

	require.Nil(t, InstancesBetween(Monthly, start, to, from))
	require.Nil(t, InstancesBetween("bogus", start, from, to))
}
