package prebuilt

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/suhasdasari/S4D5/graph"
)

// Risk readings written to risk_assessment.
const (
	RiskHighLiquidity = "High Liquidity Risk"
	RiskStable        = "Stable"
)

// Judge decisions.
const (
	DecisionExecute = "Execute"
	DecisionReject  = "Reject"
)

// DefaultPlan is the fixed decomposition produced by the Planner step.
var DefaultPlan = []string{
	"Fetch market data",
	"Assess liquidity risk",
	"Generate Bull/Bear thesis",
	"Calculate consensus",
	"Finalize proposal",
}

// AssetForGoal picks the traded asset from the goal text.
func AssetForGoal(goal string) string {
	if strings.Contains(goal, "BTC") {
		return "BTC"
	}
	return "ETH"
}

// AssessRisk flags volatile markets whose liquidity draw exceeds 0.7.
func AssessRisk(m MarketSnapshot, draw float64) string {
	if m.PriceVolatility == VolatilityHigh && draw > 0.7 {
		return RiskHighLiquidity
	}
	return RiskStable
}

// BullConviction scores the bullish case for a market.
func BullConviction(m MarketSnapshot) float64 {
	conviction := 0.5
	if m.OrderBookImbalance == ImbalanceBullish {
		conviction += 0.3
	}
	if m.Volume24h > 10_000_000 {
		conviction += 0.1
	}
	return math.Min(conviction, 1)
}

// BearDoubt scores the bearish case for a market.
func BearDoubt(m MarketSnapshot) float64 {
	doubt := 0.3
	if m.OrderBookImbalance == ImbalanceBearish {
		doubt += 0.4
	}
	if m.PriceVolatility == VolatilityHigh {
		doubt += 0.2
	}
	return math.Min(doubt, 1)
}

// Consensus weighs bull conviction against bear doubt.
func Consensus(conviction, doubt float64) float64 {
	return conviction*0.6 - doubt*0.4
}

// Judge turns a consensus score into a decision.
func Judge(score float64) string {
	if score > 0.2 {
		return DecisionExecute
	}
	return DecisionReject
}

// Proposal builds the trade_proposal object for a consensus score.
func Proposal(goal string, consensus float64, now time.Time) map[string]any {
	direction := "Short"
	if consensus > 0 {
		direction = "Long"
	}
	entry := "Limit"
	if consensus > 0.3 {
		entry = "Market"
	}
	return map[string]any{
		"prop_id":         fmt.Sprintf("PROP-%d", now.Unix()),
		"asset":           AssetForGoal(goal),
		"direction":       direction,
		"consensus_score": math.Round(consensus*100) / 100,
		"entry_range":     entry,
		"stop_loss":       "-5%",
		"decision":        Judge(consensus),
	}
}

func number(v any) float64 {
	f, _ := graph.ToFloat(v)
	return f
}
