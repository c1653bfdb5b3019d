package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtier/policy-engine/engine"
)

// =============================================================================
// SCHEDULE SUM INVARIANT
// =============================================================================

func TestPlanInstallments_SumInvariant(t *testing.T) {
	// GIVEN: premiums that divide unevenly across advances
	// WHEN: planning schedules of every allowed length
	// THEN: the schedule always sums exactly to the premium (no leakage)

	premiums := []float64{413.04, 100.00, 0.01, 0.03, 999.99, 1234.56, 0}

	for _, premium := range premiums {
		for count := 1; count <= engine.MaxAdvances; count++ {
			schedule, err := engine.PlanInstallments(engine.MustMoney(premium), count)
			require.NoError(t, err)
			require.Len(t, schedule, count)

			sum := engine.ZeroMoney()
			for _, a := range schedule {
				sum = sum.Add(a.Amount)
			}
			assert.True(t, sum.Equal(engine.MustMoney(premium)),
				"premium %.2f over %d advances: sum %s", premium, count, sum)
		}
	}
}

func TestPlanInstallments_EvenSplit(t *testing.T) {
	// GIVEN: premium 413.04 over the default 4 advances
	// WHEN: planning
	// THEN: every advance is exactly 103.26

	schedule, err := engine.PlanInstallments(engine.MustMoney(413.04), 4)
	require.NoError(t, err)

	for _, a := range schedule {
		assert.Equal(t, "103.26", a.Amount.String(), "advance %d", a.Number)
	}
}

func TestPlanInstallments_LastAdvanceAbsorbsDrift(t *testing.T) {
	// GIVEN: 100.00 over 3 advances (33.333... each)
	// WHEN: planning
	// THEN: first two round to 33.33, the last absorbs the drift (33.34)

	schedule, err := engine.PlanInstallments(engine.MustMoney(100.00), 3)
	require.NoError(t, err)

	assert.Equal(t, "33.33", schedule[0].Amount.String())
	assert.Equal(t, "33.33", schedule[1].Amount.String())
	assert.Equal(t, "33.34", schedule[2].Amount.String())
}

func TestPlanInstallments_DenseNumbering(t *testing.T) {
	schedule, err := engine.PlanInstallments(engine.MustMoney(400), 4)
	require.NoError(t, err)

	for i, a := range schedule {
		assert.Equal(t, i+1, a.Number)
		assert.False(t, a.Paid())
	}
}

func TestPlanInstallments_InvalidCount(t *testing.T) {
	// Counts outside [1, MaxAdvances] are an explicit error, never a clamp.
	for _, count := range []int{0, -1, 5, 100} {
		_, err := engine.PlanInstallments(engine.MustMoney(100), count)
		assert.ErrorIs(t, err, engine.ErrInvalidAdvanceCount, "count %d", count)
	}
}

func TestNewMoney_RejectsInvalidInput(t *testing.T) {
	// Negative and non-finite amounts never become Money; the planner can
	// therefore assume a valid premium.
	for _, v := range []float64{-1, -0.01} {
		_, err := engine.NewMoney(v)
		assert.ErrorIs(t, err, engine.ErrInvalidAmount, "value %v", v)
	}

	_, err := engine.NewMoneyFromString("not-a-number")
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)
	_, err = engine.NewMoneyFromString("-5.00")
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)
}

func TestNewMoney_RoundsToTwoDecimals(t *testing.T) {
	m, err := engine.NewMoney(103.2649)
	require.NoError(t, err)
	assert.Equal(t, "103.26", m.String())

	m, err = engine.NewMoney(103.265)
	require.NoError(t, err)
	assert.Equal(t, "103.27", m.String())
}
