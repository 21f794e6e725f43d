// Package pipeline runs one downgrade from start to finish.
//
// A run is a linear state machine:
//
//	Start -> Validated -> Decompressed -> Located -> Rewritten -> Compressed -> Done
//
// Any failure moves the run to Failed and aborts it. Nothing is written to the
// output path until the Compressed stage publishes a complete container.
package pipeline
