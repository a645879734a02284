// Package state tracks where each document is in the pipeline. Every stage
// record lives under its own key so concurrent updates to different stages of
// one document never conflict; a denormalized last-update pointer keeps
// status queries cheap for dashboards.
package state
