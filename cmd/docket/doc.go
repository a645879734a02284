// Command docket is the CLI for the document pipeline: submit documents,
// run the processing loop, and inspect per-stage progress.
package main
