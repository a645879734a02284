// Package docstore persists submitted documents and their stage artifacts in
// SQLite. It is the durable collaborator behind the orchestrator: the run
// loop claims pending documents from here, and finalized results land here.
package docstore
