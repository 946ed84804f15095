// Package core defines the shared contracts of TripMesh: the response event
// stream, conversational sessions and their backing store, the sub-agent
// interface with its capability descriptor, and the error taxonomy used at
// component boundaries. Higher-level packages (orchestrator, stream, agent,
// session) depend on core; core depends on nothing above it.
package core
