package prebuilt

import (
	"context"
	"fmt"
	"time"

	"github.com/suhasdasari/S4D5/graph"
	"github.com/suhasdasari/S4D5/log"
)

// AlphaStrategistName is the graph name used in events, metrics and stored records.
const AlphaStrategistName = "alpha_strategist"

// Step names of the alpha strategist graph.
const (
	StepPlanner    = "Planner"
	StepResearcher = "Researcher"
	StepBull       = "Bull"
	StepBear       = "Bear"
	StepConsensus  = "Consensus"
	StepAuditor    = "Auditor"
)

// State fields of the alpha strategist graph.
const (
	FieldGoal           = "goal"
	FieldPlan           = "plan"
	FieldResearchData   = "research_data"
	FieldRiskAssessment = "risk_assessment"
	FieldBullThesis     = "bull_thesis"
	FieldBearThesis     = "bear_thesis"
	FieldConsensusScore = "consensus_score"
	FieldTradeProposal  = "trade_proposal"
)

// Routing labels of the risk check after the Researcher step.
const (
	OutcomeHighRisk = "high_risk"
	OutcomePass     = "pass"
)

// AlphaStrategistConfig configures the alpha strategist workflow.
type AlphaStrategistConfig struct {
	// Market feeds the Researcher step. Defaults to a time-seeded RandomMarket.
	Market MarketDataProvider

	// Now stamps proposal ids and audit entries. Defaults to time.Now.
	Now func() time.Time

	// Logger receives step progress. Defaults to the package default logger.
	Logger log.Logger
}

func (c AlphaStrategistConfig) withDefaults() AlphaStrategistConfig {
	if c.Market == nil {
		c.Market = NewRandomMarket(0)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.GetDefaultLogger()
	}
	return c
}

// AlphaStrategistSchema declares the fields of the alpha strategist state.
func AlphaStrategistSchema() *graph.Schema {
	return graph.NewSchema(
		graph.Field{Name: FieldGoal, Type: graph.TypeString},
		graph.Field{Name: FieldPlan, Type: graph.TypeSequence},
		graph.Field{Name: FieldResearchData, Type: graph.TypeObject},
		graph.Field{Name: FieldRiskAssessment, Type: graph.TypeString},
		graph.Field{Name: FieldBullThesis, Type: graph.TypeObject},
		graph.Field{Name: FieldBearThesis, Type: graph.TypeObject},
		graph.Field{Name: FieldConsensusScore, Type: graph.TypeNumber},
		graph.Field{Name: FieldTradeProposal, Type: graph.TypeObject},
	)
}

// BuildAlphaStrategistGraph wires the alpha strategist steps:
//
//	Planner -> Researcher -(pass)-> Bull -> Bear -> Consensus -> Auditor -> END
//	                      -(high_risk)-> END
//
// The returned builder can be extended before it is compiled.
func BuildAlphaStrategistGraph(config AlphaStrategistConfig) *graph.StateGraph {
	config = config.withDefaults()
	s := &strategist{config: config}

	workflow := graph.NewStateGraph(AlphaStrategistSchema())
	workflow.SetName(AlphaStrategistName)

	workflow.AddNode(StepPlanner, "Decompose the goal into a fixed plan", s.plan,
		graph.WithInputs(FieldGoal), graph.WithOutputs(FieldPlan))
	workflow.AddNode(StepResearcher, "Fetch market data and assess liquidity risk", s.research,
		graph.WithInputs(FieldGoal), graph.WithOutputs(FieldResearchData, FieldRiskAssessment))
	workflow.AddNode(StepBull, "Build the bullish thesis", s.bull,
		graph.WithInputs(FieldResearchData), graph.WithOutputs(FieldBullThesis))
	workflow.AddNode(StepBear, "Build the bearish thesis", s.bear,
		graph.WithInputs(FieldResearchData), graph.WithOutputs(FieldBearThesis))
	workflow.AddNode(StepConsensus, "Weigh both theses into a trade proposal", s.consensus,
		graph.WithInputs(FieldGoal, FieldBullThesis, FieldBearThesis),
		graph.WithOutputs(FieldConsensusScore, FieldTradeProposal))
	workflow.AddNode(StepAuditor, "Summarise the audit trail", s.audit,
		graph.WithInputs(FieldTradeProposal))

	workflow.SetEntryPoint(StepPlanner)
	workflow.AddEdge(StepPlanner, StepResearcher)
	workflow.AddConditionalEdges(StepResearcher,
		graph.FieldEquals(FieldRiskAssessment, RiskHighLiquidity, OutcomeHighRisk, OutcomePass),
		map[string]string{
			OutcomeHighRisk: graph.END,
			OutcomePass:     StepBull,
		})
	workflow.AddEdge(StepBull, StepBear)
	workflow.AddEdge(StepBear, StepConsensus)
	workflow.AddEdge(StepConsensus, StepAuditor)
	workflow.AddEdge(StepAuditor, graph.END)

	return workflow
}

// CreateAlphaStrategist compiles the alpha strategist workflow.
func CreateAlphaStrategist(config AlphaStrategistConfig) (*graph.Runnable, error) {
	config = config.withDefaults()
	runnable, err := BuildAlphaStrategistGraph(config).Compile()
	if err != nil {
		return nil, fmt.Errorf("compile alpha strategist: %w", err)
	}
	return runnable.WithClock(config.Now).WithLogger(config.Logger), nil
}

type strategist struct {
	config AlphaStrategistConfig
}

func (s *strategist) plan(_ context.Context, state graph.State) (graph.Delta, error) {
	goal, err := state.GetString(FieldGoal)
	if err != nil {
		return nil, err
	}

	plan := append([]string(nil), DefaultPlan...)
	s.config.Logger.Info("planner: %d tasks for goal %q", len(plan), goal)

	return graph.Delta{
		FieldPlan: plan,
		graph.AuditField: graph.Audit("Goal Decomposition", map[string]any{
			"goal":           goal,
			"generated_plan": plan,
		}),
	}, nil
}

func (s *strategist) research(ctx context.Context, state graph.State) (graph.Delta, error) {
	goal, err := state.GetString(FieldGoal)
	if err != nil {
		return nil, err
	}

	asset := AssetForGoal(goal)
	snap, err := s.config.Market.Snapshot(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("fetch %s market data: %w", asset, err)
	}
	risk := AssessRisk(snap, s.config.Market.LiquidityDraw())

	if risk == RiskHighLiquidity {
		s.config.Logger.Warn("researcher: %s flagged %s", asset, risk)
	} else {
		s.config.Logger.Info("researcher: %s %s volatility, %s order book", asset, snap.PriceVolatility, snap.OrderBookImbalance)
	}

	return graph.Delta{
		FieldResearchData:   snap.Map(),
		FieldRiskAssessment: risk,
		graph.AuditField: graph.Audit("Research", map[string]any{
			"market_data":     snap.Map(),
			"risk_assessment": risk,
		}),
	}, nil
}

func (s *strategist) bull(_ context.Context, state graph.State) (graph.Delta, error) {
	data, err := state.GetObject(FieldResearchData)
	if err != nil {
		return nil, err
	}

	thesis := map[string]any{
		"thesis":     "Market structure shows strong support levels.",
		"conviction": BullConviction(snapshotFromMap(data)),
	}
	return graph.Delta{
		FieldBullThesis:  thesis,
		graph.AuditField: graph.Audit("Bull Analysis", thesis),
	}, nil
}

func (s *strategist) bear(_ context.Context, state graph.State) (graph.Delta, error) {
	data, err := state.GetObject(FieldResearchData)
	if err != nil {
		return nil, err
	}

	thesis := map[string]any{
		"thesis": "Volatility suggests potential downside breakout.",
		"doubt":  BearDoubt(snapshotFromMap(data)),
	}
	return graph.Delta{
		FieldBearThesis:  thesis,
		graph.AuditField: graph.Audit("Bear Analysis", thesis),
	}, nil
}

func (s *strategist) consensus(_ context.Context, state graph.State) (graph.Delta, error) {
	goal, err := state.GetString(FieldGoal)
	if err != nil {
		return nil, err
	}
	conviction, err := thesisScore(state, FieldBullThesis, "conviction")
	if err != nil {
		return nil, err
	}
	doubt, err := thesisScore(state, FieldBearThesis, "doubt")
	if err != nil {
		return nil, err
	}

	score := Consensus(conviction, doubt)
	proposal := Proposal(goal, score, s.config.Now())
	s.config.Logger.Info("consensus: %.2f, %s %s (%s)", score, proposal["direction"], proposal["asset"], proposal["decision"])

	return graph.Delta{
		FieldConsensusScore: score,
		FieldTradeProposal:  proposal,
		graph.AuditField: graph.Audit("Consensus", map[string]any{
			"bull_score":      conviction,
			"bear_score":      doubt,
			"final_consensus": score,
			"rationale":       fmt.Sprintf("Bull conviction %g vs Bear doubt %g", conviction, doubt),
			"proposal":        proposal,
		}),
	}, nil
}

func (s *strategist) audit(_ context.Context, state graph.State) (graph.Delta, error) {
	proposal, err := state.GetObject(FieldTradeProposal)
	if err != nil {
		return nil, err
	}

	trail := state.Audit()
	steps := make([]string, 0, len(trail))
	for _, e := range trail {
		steps = append(steps, e.Step)
	}
	s.config.Logger.Info("auditor: %d entries recorded for %v", len(trail), proposal["prop_id"])

	return graph.Delta{
		graph.AuditField: graph.Audit("Audit Summary", map[string]any{
			"entries":     len(trail),
			"steps":       steps,
			"proposal_id": proposal["prop_id"],
		}),
	}, nil
}

func thesisScore(state graph.State, field, key string) (float64, error) {
	thesis, err := state.GetObject(field)
	if err != nil {
		return 0, err
	}
	score, ok := graph.ToFloat(thesis[key])
	if !ok {
		return 0, &graph.StateTypeError{Field: field + "." + key, Expected: graph.TypeNumber.String(), Actual: fmt.Sprintf("%T", thesis[key])}
	}
	return score, nil
}
