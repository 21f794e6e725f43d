// Package main hosts the prdowngrade CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, and the internal
// packages together: downgrade runs the pipeline once, info inspects a
// project read-only, watch polls a directory, and history reads the watch
// ledger. Keep behavior in internal packages and surface it here.
package main
