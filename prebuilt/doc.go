// Package prebuilt provides ready-to-run workflows built on the graph package.
//
// # Alpha Strategist
//
// The alpha strategist turns a trading goal into an audited trade proposal:
//
//	Planner -> Researcher -(pass)-> Bull -> Bear -> Consensus -> Auditor -> END
//	                      -(high_risk)-> END
//
// The Planner decomposes the goal into a fixed plan. The Researcher reads a
// MarketDataProvider and screens the market for liquidity risk; a high risk
// reading ends the run early with status TERMINATED_EARLY. Otherwise the Bull
// and Bear steps score the market, Consensus weighs both scores into a trade
// proposal (weights 0.6 and 0.4) and the Auditor appends a summary of the
// trail.
//
//	strategist, err := prebuilt.CreateAlphaStrategist(prebuilt.AlphaStrategistConfig{
//		Market: prebuilt.NewRandomMarket(42),
//	})
//	if err != nil {
//		return err
//	}
//
//	res, err := strategist.Invoke(ctx, map[string]any{
//		"goal": "Find alpha in BTC/ETH markets",
//	})
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Status, res.State["trade_proposal"])
//
// Every step appends to the audit_log field, so the trail is available from
// res.Audit() and can be persisted with the store package.
//
// Market data is mocked. RandomMarket draws readings from a seeded generator;
// FixedMarket returns a constant reading and is meant for tests and demos.
package prebuilt
