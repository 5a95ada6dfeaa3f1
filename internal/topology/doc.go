// Package topology holds the static side of a pipeline: the scenarios that can
// be executed, the trigger stages that gate on them, and the validator that
// turns a declared Topology into a ValidatedTopology.
//
// # Construction
//
// Scenarios are registered in a Registry, stages are appended to a Graph that
// resolves every reference against that Registry at insertion time. Because a
// predecessor must already exist when a stage is added, a Graph can never
// express a forward reference or a loop. Topologies assembled by hand (the
// Topology struct has exported fields) get no such guarantee, so Validate
// checks everything again:
//
//	scenarios  ──► Registry.Register ─┐
//	                                  ├─► Graph.Topology ─► Validate ─► *ValidatedTopology
//	stages     ──► Graph.AddStage ────┘
//
// Build wraps the three steps for callers that hold plain declarations, such
// as the configuration loaders.
//
// # Identity
//
// Scenarios and stages reference each other by id only. A ValidatedTopology
// keeps its own index of both and derives the adjacency the coordinator needs
// (stage to scenarios, stage to predecessor, stage to successors).
package topology
