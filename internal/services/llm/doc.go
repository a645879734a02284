// Package llm wraps the chat-completions API used for entity extraction. The
// client asks for JSON-only responses and maps HTTP failures onto the shared
// error markers; retry scheduling belongs to the orchestrator, so every call
// here is single-shot.
package llm
