package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewatch/internal/domain"
	"notewatch/internal/modules/products"
)

func TestClassifyOrionLiveBeforeAllDates(t *testing.T) {
	p := &products.Product{
		TradeDate:            datePtr("2023-01-10"),
		FinalObservationDate: datePtr("2026-01-05"),
		MaturityDate:         datePtr("2026-01-10"),
	}

	lc := ClassifyOrion(p, mustDate("2025-06-15"))

	assert.Equal(t, domain.StatusLive, lc.Status)
	assert.False(t, lc.FinalObservationPassed)
	assert.False(t, lc.MaturityPassed)
	assert.Nil(t, lc.RedemptionDate)
	assert.Greater(t, lc.DaysToMaturity, 0)
}

func TestClassifyOrionFinalObservationIsStrict(t *testing.T) {
	p := &products.Product{
		FinalObservationDate: datePtr("2025-06-15"),
		MaturityDate:         datePtr("2025-06-20"),
	}

	// On the observation day itself the close is not yet assumed available
	lc := ClassifyOrion(p, mustDate("2025-06-15"))
	assert.False(t, lc.FinalObservationPassed)
	assert.Equal(t, domain.StatusLive, lc.Status)

	// The next calendar day it is
	lc = ClassifyOrion(p, mustDate("2025-06-16"))
	assert.True(t, lc.FinalObservationPassed)
	assert.Equal(t, domain.StatusMatured, lc.Status)
	require.NotNil(t, lc.RedemptionDate)
	assert.Equal(t, mustDate("2025-06-15"), *lc.RedemptionDate)
	assert.Equal(t, domain.RedemptionFinalObservation, lc.RedemptionKind)
}

func TestClassifyOrionMaturityIsInclusive(t *testing.T) {
	p := &products.Product{MaturityDate: datePtr("2025-06-20")}

	lc := ClassifyOrion(p, mustDate("2025-06-19"))
	assert.False(t, lc.MaturityPassed)

	lc = ClassifyOrion(p, mustDate("2025-06-20"))
	assert.True(t, lc.MaturityPassed)
	assert.Equal(t, domain.StatusMatured, lc.Status)
	assert.Equal(t, domain.RedemptionMaturity, lc.RedemptionKind)
}

func TestClassifyOrionTimeOfDayIsIgnored(t *testing.T) {
	p := &products.Product{
		FinalObservationDate: datePtr("2025-06-15"),
		MaturityDate:         datePtr("2025-06-20"),
	}

	// Late-evening "now" must classify the same as midnight
	now := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	lc := ClassifyOrion(p, now)
	assert.False(t, lc.FinalObservationPassed)
}

func TestClassifyOrionPrefersFinalObservationAsRedemptionDate(t *testing.T) {
	p := &products.Product{
		FinalObservationDate: datePtr("2025-06-15"),
		MaturityDate:         datePtr("2025-06-20"),
	}

	lc := ClassifyOrion(p, mustDate("2025-07-01"))

	assert.True(t, lc.FinalObservationPassed)
	assert.True(t, lc.MaturityPassed)
	require.NotNil(t, lc.RedemptionDate)
	assert.Equal(t, mustDate("2025-06-15"), *lc.RedemptionDate)
	assert.Equal(t, domain.RedemptionFinalObservation, lc.RedemptionKind)
}

func TestClassifyOrionMonotonic(t *testing.T) {
	p := &products.Product{
		FinalObservationDate: datePtr("2025-06-15"),
		MaturityDate:         datePtr("2025-06-20"),
	}

	// Once matured, later evaluation dates never flip the product back to live
	wasMatured := false
	for day := 10; day <= 30; day++ {
		lc := ClassifyOrion(p, time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC))
		if wasMatured {
			assert.Equal(t, domain.StatusMatured, lc.Status, "day %d regressed to %s", day, lc.Status)
		}
		if lc.Status == domain.StatusMatured {
			wasMatured = true
		}
	}
	assert.True(t, wasMatured)
}

func TestClassifyOrionDaysToMaturityLabel(t *testing.T) {
	p := &products.Product{MaturityDate: datePtr("2025-06-20")}

	lc := ClassifyOrion(p, mustDate("2025-06-10"))
	assert.Equal(t, 10, lc.DaysToMaturity)
	assert.Equal(t, "10 days", lc.DaysToMaturityLabel)

	lc = ClassifyOrion(p, mustDate("2025-06-25"))
	assert.Equal(t, -5, lc.DaysToMaturity)
	assert.Equal(t, "5 days (matured)", lc.DaysToMaturityLabel)
}

func TestClassifyParticipationIssuerCallUsesFullTimestamps(t *testing.T) {
	p := &products.Product{MaturityDate: datePtr("2026-06-20")}
	callAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	params := products.ParticipationParams{IssuerCallDate: &callAt}

	// One second before the call timestamp: not called, even though the
	// calendar date already matches
	lc := ClassifyParticipation(p, params, time.Date(2025, 6, 15, 11, 59, 59, 0, time.UTC))
	assert.False(t, lc.IsCalled)
	assert.Equal(t, domain.StatusLive, lc.Status)

	// At the exact timestamp: called
	lc = ClassifyParticipation(p, params, callAt)
	assert.True(t, lc.IsCalled)
	assert.Equal(t, domain.StatusCalled, lc.Status)
	assert.Equal(t, domain.RedemptionIssuerCall, lc.RedemptionKind)
	require.NotNil(t, lc.RedemptionDate)
	assert.Equal(t, callAt, *lc.RedemptionDate)
}

func TestClassifyParticipationCalledTakesPrecedenceOverMatured(t *testing.T) {
	p := &products.Product{MaturityDate: datePtr("2025-06-01")}
	callAt := mustDate("2025-05-20")
	params := products.ParticipationParams{IssuerCallDate: &callAt}

	lc := ClassifyParticipation(p, params, mustDate("2025-07-01"))

	assert.True(t, lc.IsCalled)
	assert.True(t, lc.MaturityPassed)
	assert.Equal(t, domain.StatusCalled, lc.Status)
	assert.Equal(t, callAt, *lc.RedemptionDate)
}

func TestClassifyParticipationMaturityWithoutCall(t *testing.T) {
	p := &products.Product{MaturityDate: datePtr("2025-06-01")}

	lc := ClassifyParticipation(p, products.ParticipationParams{}, mustDate("2025-06-01"))

	assert.False(t, lc.IsCalled)
	assert.Equal(t, domain.StatusMatured, lc.Status)
	assert.Equal(t, domain.RedemptionMaturity, lc.RedemptionKind)
}

func TestClassifyParticipationNoDatesStaysLive(t *testing.T) {
	lc := ClassifyParticipation(&products.Product{}, products.ParticipationParams{}, mustDate("2025-06-01"))

	assert.Equal(t, domain.StatusLive, lc.Status)
	assert.Nil(t, lc.RedemptionDate)
	assert.Equal(t, 0, lc.DaysToMaturity)
	assert.Empty(t, lc.DaysToMaturityLabel)
}
