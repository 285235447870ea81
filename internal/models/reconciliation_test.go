package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"homebudget/internal/apperr"
)

func validParams() NewMatchParams {
	return NewMatchParams{
		ImportedTransactionID:  10,
		RecurringTransactionID: 20,
		ScheduledDate:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ConfidenceScore:        0.9,
		AmountVariance:         decimal.RequireFromString("0.50"),
		DateOffsetDays:         2,
		Scope:                  ScopeShared,
	}
}

func TestConfidenceBuckets(t *testing.T) {
	cases := []struct {
		score float64
		want  Confidence
	}{
		{0.9, ConfidenceHigh},
		{0.85, ConfidenceHigh},
		{0.7, ConfidenceMedium},
		{0.60, ConfidenceMedium},
		{0.3, ConfidenceLow},
		{0, ConfidenceLow},
	}
	for _, tc := range cases {
		p := validParams()
		p.ConfidenceScore = tc.score
		m, err := NewReconciliationMatch(p)
		require.NoError(t, err)
		require.Equal(t, tc.want, m.ConfidenceLevel, "score %v", tc.score)
	}
}

func TestCreateRejectsOutOfRangeScore(t *testing.T) {
	for _, score := range []float64{-0.1, 1.1} {
		p := validParams()
		p.ConfidenceScore = score
		_, err := NewReconciliationMatch(p)
		require.True(t, apperr.IsValidation(err), "score %v", score)
	}
}

func TestCreateRequiresIdentifiers(t *testing.T) {
	p := validParams()
	p.ImportedTransactionID = 0
	_, err := NewReconciliationMatch(p)
	require.True(t, apperr.IsValidation(err))

	p = validParams()
	p.RecurringTransactionID = 0
	_, err = NewReconciliationMatch(p)
	require.True(t, apperr.IsValidation(err))
}

func TestPersonalScopeRequiresOwner(t *testing.T) {
	p := validParams()
	p.Scope = ScopePersonal
	_, err := NewReconciliationMatch(p)
	require.True(t, apperr.IsValidation(err))

	owner := uint(7)
	p.OwnerID = &owner
	m, err := NewReconciliationMatch(p)
	require.NoError(t, err)
	require.Equal(t, ScopePersonal, m.Scope)
}

func TestAcceptIsTerminal(t *testing.T) {
	m, err := NewReconciliationMatch(validParams())
	require.NoError(t, err)
	require.Equal(t, MatchSuggested, m.Status)
	require.False(t, m.Resolved())

	require.NoError(t, m.Accept())
	require.Equal(t, MatchAccepted, m.Status)
	require.NotNil(t, m.ResolvedAt)
	first := *m.ResolvedAt

	err = m.Accept()
	require.True(t, apperr.IsValidation(err))
	require.Equal(t, MatchAccepted, m.Status)
	require.Equal(t, first, *m.ResolvedAt, "resolved timestamp must not move")

	require.True(t, apperr.IsValidation(m.Reject()))
	require.True(t, apperr.IsValidation(m.AutoMatch()))
}

func TestRejectAndAutoMatch(t *testing.T) {
	m, _ := NewReconciliationMatch(validParams())
	require.NoError(t, m.Reject())
	require.Equal(t, MatchRejected, m.Status)

	m, _ = NewReconciliationMatch(validParams())
	require.NoError(t, m.AutoMatch())
	require.Equal(t, MatchAutoMatched, m.Status)
	require.True(t, m.Resolved())
}
