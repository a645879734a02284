// Package relations runs the relationship-building stage: entities that
// appear in the same chunks become edges in the document graph, weighted by
// how often they co-occur.
package relations
