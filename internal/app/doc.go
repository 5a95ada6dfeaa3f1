// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// An App loads pipeline files through a config.Loader, validates them into a
// topology.ValidatedTopology and hands that to a coordinator.Coordinator,
// wiring in the chosen executor and every configured event sink.
package app
