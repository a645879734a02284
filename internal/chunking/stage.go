package chunking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/recognition"
	"docket/internal/services"
	"docket/internal/stage"
)

// Chunk is one bounded slice of document text. Start and End are rune
// offsets into the normalized document text and delimit Text exactly.
type Chunk struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ChunkSet is the payload this stage emits.
type ChunkSet struct {
	Chunks []Chunk `json:"chunks"`
}

// Chunker is the chunking stage executor.
type Chunker struct {
	maxChars     int
	overlapChars int
	logger       *slog.Logger
}

// NewChunker constructs the chunking stage executor.
func NewChunker(maxChars, overlapChars int, logger *slog.Logger) *Chunker {
	if maxChars <= 0 {
		maxChars = 4000
	}
	if overlapChars < 0 || overlapChars >= maxChars {
		overlapChars = maxChars / 10
	}
	return &Chunker{
		maxChars:     maxChars,
		overlapChars: overlapChars,
		logger:       logging.NewComponentLogger(logger, "chunking"),
	}
}

func (c *Chunker) Stage() pipeline.Stage {
	return pipeline.StageChunk
}

// Execute parses the recognition payload and splits its text.
func (c *Chunker) Execute(ctx context.Context, req stage.Request) (*stage.Result, error) {
	logger := logging.WithContext(ctx, c.logger)

	var recognized recognition.Result
	if err := json.Unmarshal(req.Content, &recognized); err != nil {
		return nil, services.Wrap(services.ErrValidation, "chunk", "parse input",
			"recognition payload missing or invalid", err)
	}

	chunks := c.Split(recognized.Text)
	if len(chunks) == 0 {
		return nil, services.Wrap(services.ErrValidation, "chunk", "split",
			"no chunks produced from document text", nil)
	}

	payload, err := json.Marshal(ChunkSet{Chunks: chunks})
	if err != nil {
		return nil, fmt.Errorf("marshal chunk set: %w", err)
	}

	logger.Info("document chunked", logging.Int("chunks", len(chunks)))

	return &stage.Result{
		Payload: payload,
		Summary: fmt.Sprintf("%d chunks", len(chunks)),
	}, nil
}

// Split normalizes text and cuts it into overlapping chunks, preferring
// paragraph then sentence boundaries near the size limit.
func (c *Chunker) Split(text string) []Chunk {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	var chunks []Chunk
	runes := []rune(text)
	start := 0
	for start < len(runes) {
		end := start + c.maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakNear(runes, start, end)
		}
		// Offsets shrink with the trim so runes[Start:End] is exactly Text.
		textStart, textEnd := start, end
		for textStart < textEnd && unicode.IsSpace(runes[textStart]) {
			textStart++
		}
		for textEnd > textStart && unicode.IsSpace(runes[textEnd-1]) {
			textEnd--
		}
		if textStart < textEnd {
			chunkText := string(runes[textStart:textEnd])
			chunks = append(chunks, Chunk{
				ID:    chunkID(chunkText),
				Index: len(chunks),
				Text:  chunkText,
				Start: textStart,
				End:   textEnd,
			})
		}
		if end == len(runes) {
			break
		}
		next := end - c.overlapChars
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// breakNear backs up from the hard limit to the nearest paragraph or
// sentence boundary, falling back to whitespace, so chunks do not cut words.
func breakNear(runes []rune, start, limit int) int {
	windowStart := start + (limit-start)*3/4
	for i := limit; i > windowStart; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := limit; i > windowStart; i-- {
		if runes[i-1] == '.' || runes[i-1] == ';' {
			return i
		}
	}
	for i := limit; i > windowStart; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	return limit
}

// chunkID derives a stable identifier from the chunk text alone, never its
// position, so identical text fingerprints identically.
func chunkID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "chunk-" + hex.EncodeToString(sum[:8])
}

func (c *Chunker) Retryable(err error) bool {
	return services.Retryable(err)
}

func (c *Chunker) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("chunking")
}
