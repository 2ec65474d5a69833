// Package graph provides the workflow engine behind S4D5: a declarative,
// acyclic state machine whose steps share a single state record.
//
// A workflow is declared on a StateGraph (steps, straight edges, conditional
// edges, an entry point and terminal markers), validated by Compile into an
// immutable Runnable, and executed with Invoke. Every run walks exactly one
// path from the entry point to a terminal marker.
//
// # Core Concepts
//
// ## State and Schema
// State is a map of named fields. Steps never mutate it; they return a Delta
// that the executor merges using the per-field MergePolicy declared in the
// Schema. Overwrite replaces a value, Append concatenates sequences. Declared
// field types are enforced at merge time and a mismatch fails the run with a
// *StateTypeError.
//
// ## Audit Trail
// Every schema carries the AuditField ("audit_log") with the Append policy.
// Steps add entries with Audit; the executor stamps sequence numbers and
// timestamps so the trail is ordered and append-only.
//
// ## Routing
// A conditional edge pairs a RouterFunc with an outcome table. The router's
// label picks the next step or a terminal marker. Reaching a terminal through
// a conditional edge finishes the run as StatusTerminatedEarly; reaching one
// through a straight edge finishes it as StatusCompleted.
//
// # Example Usage
//
//	g := graph.NewStateGraph(graph.NewSchema(
//		graph.Field{Name: "goal", Type: graph.TypeString},
//		graph.Field{Name: "risk", Type: graph.TypeString},
//	))
//	g.AddNode("screen", "Screen for risk", func(ctx context.Context, s graph.State) (graph.Delta, error) {
//		return graph.Delta{
//			"risk":           "Stable",
//			graph.AuditField: graph.Audit("Risk Screen", nil),
//		}, nil
//	})
//	g.AddNode("execute", "Execute", executeFn)
//	g.AddConditionalEdges("screen", graph.FieldEquals("risk", "Stable", "pass", "high_risk"),
//		map[string]string{"pass": "execute", "high_risk": graph.END})
//	g.AddEdge("execute", graph.END)
//	g.SetEntryPoint("screen")
//
//	runnable, err := g.Compile()
//	if err != nil {
//		return err
//	}
//	res, err := runnable.Invoke(ctx, map[string]any{"goal": "Find alpha"})
//
// # Error Handling
//
// Compile reports every structural problem at once in a *GraphValidationError.
// Invoke returns *StepExecutionError, *RoutingError or *StateTypeError; each
// carries the audit trail merged before the failure. Use errors.Is with the
// Err* sentinels to classify them.
//
// # Listeners
//
// WithListeners attaches Listener implementations that receive run, step and
// routing events synchronously. LoggingListener writes them to a log.Logger.
package graph
