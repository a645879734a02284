// Package stage defines the uniform contract every pipeline stage implements.
// The orchestrator never branches on which stage it is running; it only
// invokes this interface and classifies failures through it.
package stage
