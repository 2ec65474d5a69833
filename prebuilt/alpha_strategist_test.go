package prebuilt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/log"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// recordingMarket wraps a FixedMarket and remembers the assets requested.
type recordingMarket struct {
	FixedMarket
	assets []string
}

func (m *recordingMarket) Snapshot(ctx context.Context, asset string) (MarketSnapshot, error) {
	m.assets = append(m.assets, asset)
	return m.FixedMarket.Snapshot(ctx, asset)
}

func newStrategist(t *testing.T, market MarketDataProvider) *graph.Runnable {
	t.Helper()
	r, err := CreateAlphaStrategist(AlphaStrategistConfig{
		Market: market,
		Now:    func() time.Time { return fixedNow },
		Logger: log.NoOpLogger{},
	})
	require.NoError(t, err)
	return r
}

func auditSteps(entries []graph.AuditEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Step)
	}
	return out
}

func TestAlphaStrategist_Graph(t *testing.T) {
	r := newStrategist(t, FixedMarket{})

	assert.Equal(t, AlphaStrategistName, r.Name())
	assert.Equal(t, StepPlanner, r.EntryPoint())
	assert.Equal(t, []string{StepPlanner, StepResearcher, StepBull, StepBear, StepConsensus, StepAuditor}, r.Steps())

	mermaid := r.Exporter().DrawMermaid()
	assert.Contains(t, mermaid, "START --> Planner")
	assert.Contains(t, mermaid, "Researcher -.->|high_risk| END")
	assert.Contains(t, mermaid, "Researcher -.->|pass| Bull")
	assert.Contains(t, mermaid, "Auditor --> END")
}

func TestAlphaStrategist_HighRiskTerminatesEarly(t *testing.T) {
	market := FixedMarket{
		Market: MarketSnapshot{Volume24h: 20_000_000, PriceVolatility: VolatilityHigh, CurrentPrice: 2500, OrderBookImbalance: ImbalanceBullish},
		Draw:   0.9,
	}
	res, err := newStrategist(t, market).Invoke(context.Background(), map[string]any{
		FieldGoal: "Analyze the 10% ETH drop and propose a recovery trade",
	})
	require.NoError(t, err)

	assert.Equal(t, graph.StatusTerminatedEarly, res.Status)
	assert.Equal(t, graph.END, res.Terminal)
	assert.Equal(t, OutcomeHighRisk, res.Outcome)
	assert.Equal(t, []string{StepPlanner, StepResearcher}, res.Steps)

	entries := res.Audit()
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"Goal Decomposition", "Research"}, auditSteps(entries))
	assert.Equal(t, RiskHighLiquidity, entries[1].Details["risk_assessment"])

	assert.Equal(t, RiskHighLiquidity, res.State[FieldRiskAssessment])
	assert.False(t, res.State.Has(FieldBullThesis))
	assert.False(t, res.State.Has(FieldTradeProposal))
}

func TestAlphaStrategist_FullPath(t *testing.T) {
	market := FixedMarket{
		Market: MarketSnapshot{Volume24h: 20_000_000, PriceVolatility: VolatilityMedium, CurrentPrice: 2500, OrderBookImbalance: ImbalanceBullish},
		Draw:   0.9,
	}
	res, err := newStrategist(t, market).Invoke(context.Background(), map[string]any{
		FieldGoal: "Find alpha in BTC/ETH markets",
	})
	require.NoError(t, err)

	assert.Equal(t, graph.StatusCompleted, res.Status)
	assert.Equal(t, graph.END, res.Terminal)
	assert.Equal(t, []string{StepPlanner, StepResearcher, StepBull, StepBear, StepConsensus, StepAuditor}, res.Steps)

	entries := res.Audit()
	require.Len(t, entries, 6)
	assert.Equal(t, []string{"Goal Decomposition", "Research", "Bull Analysis", "Bear Analysis", "Consensus", "Audit Summary"}, auditSteps(entries))
	for i, e := range entries {
		assert.Equal(t, i+1, e.Sequence)
		assert.Equal(t, fixedNow, e.Timestamp)
	}

	plan, err := res.State.GetStrings(FieldPlan)
	require.NoError(t, err)
	assert.Equal(t, DefaultPlan, plan)

	score, err := res.State.GetFloat(FieldConsensusScore)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, score, 1e-9)

	proposal, err := res.State.GetObject(FieldTradeProposal)
	require.NoError(t, err)
	assert.Equal(t, "PROP-1772366400", proposal["prop_id"])
	assert.Equal(t, "BTC", proposal["asset"])
	assert.Equal(t, "Long", proposal["direction"])
	assert.Equal(t, "Market", proposal["entry_range"])
	assert.Equal(t, DecisionExecute, proposal["decision"])

	summary := entries[5].Details
	assert.Equal(t, 5, summary["entries"])
	assert.Equal(t, "PROP-1772366400", summary["proposal_id"])
	assert.Equal(t, []string{"Goal Decomposition", "Research", "Bull Analysis", "Bear Analysis", "Consensus"}, summary["steps"])

	consensus := entries[4].Details
	assert.InDelta(t, 0.9, consensus["bull_score"], 1e-9)
	assert.InDelta(t, 0.3, consensus["bear_score"], 1e-9)
}

func TestAlphaStrategist_BearishMarket(t *testing.T) {
	market := FixedMarket{
		Market: MarketSnapshot{Volume24h: 5_000_000, PriceVolatility: VolatilityHigh, CurrentPrice: 1800, OrderBookImbalance: ImbalanceBearish},
		Draw:   0.5,
	}
	res, err := newStrategist(t, market).Invoke(context.Background(), map[string]any{FieldGoal: "ETH"})
	require.NoError(t, err)
	require.Equal(t, graph.StatusCompleted, res.Status)

	proposal, err := res.State.GetObject(FieldTradeProposal)
	require.NoError(t, err)
	assert.Equal(t, "ETH", proposal["asset"])
	assert.Equal(t, "Short", proposal["direction"])
	assert.Equal(t, "Limit", proposal["entry_range"])
	assert.Equal(t, DecisionReject, proposal["decision"])
	assert.InDelta(t, -0.06, proposal["consensus_score"], 1e-9)
}

func TestAlphaStrategist_AssetSelection(t *testing.T) {
	tests := []struct {
		goal string
		want string
	}{
		{"Find alpha in BTC/ETH markets", "BTC"},
		{"Analyze the 10% ETH drop", "ETH"},
		{"Find a trade", "ETH"},
	}
	for _, tt := range tests {
		t.Run(tt.goal, func(t *testing.T) {
			market := &recordingMarket{FixedMarket: FixedMarket{Market: MarketSnapshot{PriceVolatility: VolatilityMedium}}}
			_, err := newStrategist(t, market).Invoke(context.Background(), map[string]any{FieldGoal: tt.goal})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, market.assets)
		})
	}
}

func TestAlphaStrategist_MarketFailure(t *testing.T) {
	outage := errors.New("rpc unavailable")
	res, err := newStrategist(t, FixedMarket{Err: outage}).Invoke(context.Background(), map[string]any{FieldGoal: "ETH"})
	require.Error(t, err)

	assert.ErrorIs(t, err, graph.ErrStepFailed)
	assert.ErrorIs(t, err, outage)

	var stepErr *graph.StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepResearcher, stepErr.Step)

	require.NotNil(t, res)
	assert.Equal(t, graph.StatusFailed, res.Status)
	assert.Equal(t, []string{"Goal Decomposition"}, auditSteps(res.Audit()))
}

func TestAlphaStrategist_MissingGoal(t *testing.T) {
	res, err := newStrategist(t, FixedMarket{}).Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrMissingField)
	assert.Equal(t, graph.StatusFailed, res.Status)
	assert.Empty(t, res.Audit())
}

func TestAlphaStrategist_RandomMarketIsReproducible(t *testing.T) {
	run := func() *graph.Result {
		res, err := newStrategist(t, NewRandomMarket(7)).Invoke(context.Background(), map[string]any{FieldGoal: "ETH"})
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()

	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.Steps, b.Steps)
	assert.Equal(t, a.State[FieldResearchData], b.State[FieldResearchData])
}
