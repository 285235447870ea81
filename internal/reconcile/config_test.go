package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestScoreExactMatch(t *testing.T) {
	cfg := DefaultConfig()

	score := cfg.Score(
		Imported{Amount: decimal.NewFromInt(-55), Date: day, Description: "CITY POWER"},
		Candidate{ExpectedAmount: decimal.NewFromInt(-55), ScheduledDate: day, Description: "City Power"},
	)
	require.InDelta(t, 1.0, score, 1e-9)
}

func TestScoreDegradesWithDistance(t *testing.T) {
	cfg := DefaultConfig()
	cand := Candidate{
		ExpectedAmount: decimal.NewFromInt(-100),
		ScheduledDate:  day,
		Description:    "GYM MEMBERSHIP",
	}

	exact := cfg.Score(Imported{Amount: decimal.NewFromInt(-100), Date: day, Description: "GYM MEMBERSHIP"}, cand)
	offAmount := cfg.Score(Imported{Amount: decimal.NewFromInt(-104), Date: day, Description: "GYM MEMBERSHIP"}, cand)
	offDate := cfg.Score(Imported{Amount: decimal.NewFromInt(-100), Date: day.AddDate(0, 0, 3), Description: "GYM MEMBERSHIP"}, cand)
	offDesc := cfg.Score(Imported{Amount: decimal.NewFromInt(-100), Date: day, Description: "SOMETHING ELSE"}, cand)

	require.Greater(t, exact, offAmount)
	require.Greater(t, exact, offDate)
	require.Greater(t, exact, offDesc)
	for _, s := range []float64{offAmount, offDate, offDesc} {
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}
}

func TestScoreAmountBeyondTolerance(t *testing.T) {
	cfg := DefaultConfig()

	// 20% off with a 10% tolerance: amount component is zero, date and
	// description still carry their weights.
	score := cfg.Score(
		Imported{Amount: decimal.NewFromInt(-120), Date: day, Description: "RENT"},
		Candidate{ExpectedAmount: decimal.NewFromInt(-100), ScheduledDate: day, Description: "RENT"},
	)
	require.InDelta(t, cfg.DateWeight+cfg.DescriptionWeight, score, 1e-9)
}

func TestScoreZeroExpectedAmount(t *testing.T) {
	cfg := DefaultConfig()

	score := cfg.Score(
		Imported{Amount: decimal.NewFromInt(-10), Date: day, Description: "X"},
		Candidate{ExpectedAmount: decimal.Zero, ScheduledDate: day, Description: "X"},
	)
	require.InDelta(t, cfg.DateWeight+cfg.DescriptionWeight, score, 1e-9)
}

func TestDescriptionSimilarityIsCaseInsensitive(t *testing.T) {
	require.InDelta(t, 1.0, descriptionSimilarity("Netflix", "NETFLIX"), 1e-9)
	require.InDelta(t, 1.0, descriptionSimilarity("", ""), 1e-9)
	require.Less(t, descriptionSimilarity("NETFLIX", "SPOTIFY"), 0.5)
}

func TestDaysApart(t *testing.T) {
	require.Equal(t, 0, DaysApart(day, day))
	require.Equal(t, 3, DaysApart(day, day.AddDate(0, 0, 3)))
	require.Equal(t, 3, DaysApart(day.AddDate(0, 0, 3), day))
}

func TestFromAppConfigOverlaysDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 5, cfg.DateToleranceDays)
	require.InDelta(t, 1.0, cfg.AmountWeight+cfg.DateWeight+cfg.DescriptionWeight, 1e-9)
}
