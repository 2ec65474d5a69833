// S4D5 - Audited Decision Workflows in Go
//
// S4D5 executes trading decision workflows as fixed graphs of steps over a
// shared state record. Every step appends to an audit trail, conditional edges
// can end a run early, and finished runs are persisted as audit records.
//
// # Quick Start
//
// Install the command:
//
//	go install github.com/suhasdasari/S4D5/cmd/s4d5@latest
//
// Run the alpha strategist once and inspect the result:
//
//	s4d5 run --goal "Find alpha in BTC markets"
//	s4d5 graph --format ascii
//
// Or embed it:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/suhasdasari/S4D5/prebuilt"
//	)
//
//	func main() {
//		strategist, _ := prebuilt.CreateAlphaStrategist(prebuilt.AlphaStrategistConfig{
//			Market: prebuilt.NewRandomMarket(42),
//		})
//
//		res, _ := strategist.Invoke(context.Background(), map[string]any{
//			"goal": "Analyze the 10% ETH drop and propose a recovery trade",
//		})
//
//		fmt.Println(res.Status, res.State["trade_proposal"])
//		for _, entry := range res.Audit() {
//			fmt.Println(entry.Sequence, entry.Step)
//		}
//	}
//
// # Key Features
//
//   - Declared state: every field has a type and a merge policy (Overwrite or Append)
//   - Validated plans: unknown targets, fan-out, dead ends and cycles are rejected at compile time
//   - Early termination: a conditional edge to END stops the run with TERMINATED_EARLY
//   - Audit trail: sequence-numbered, timestamped entries stamped by the executor
//   - Persistence: memory, file, Redis, PostgreSQL and SQLite audit stores
//   - Observability: logging and Prometheus listeners, Mermaid/DOT/ASCII export
//
// # Package Structure
//
// graph/
// The state graph builder, compiler and executor
//
//	g := graph.NewStateGraph(graph.NewSchema(
//		graph.Field{Name: "goal", Type: graph.TypeString},
//	))
//	g.AddNode("plan", "Decompose the goal", planStep)
//	g.AddEdge("plan", graph.END)
//	g.SetEntryPoint("plan")
//
//	runnable, err := g.Compile()
//	res, err := runnable.Invoke(ctx, map[string]any{"goal": "..."})
//
// prebuilt/
// The alpha strategist workflow and its mock market data providers
//
// store/
// Audit record persistence: memory, file, redis, postgres and sqlite backends
//
// config/
// YAML or JSON configuration with S4D5_* environment overrides
//
// metrics/
// A Prometheus listener counting runs, steps and routing decisions
//
// server/
// An HTTP API for invoking the workflow and reading audit records
//
// log/
// The logger interface used across packages, with stdlib and golog backends
package s4d5 // import "github.com/suhasdasari/S4D5"
