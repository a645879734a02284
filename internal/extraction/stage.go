package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"docket/internal/chunking"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
	"docket/internal/services/llm"
	"docket/internal/stage"
	"docket/internal/stagecache"
)

// Service is the language-model collaborator this stage consumes.
type Service interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Mention is one entity occurrence found in a chunk.
type Mention struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	ChunkID    string  `json:"chunk_id"`
	Confidence float64 `json:"confidence"`
}

// Result is the payload this stage emits.
type Result struct {
	Mentions []Mention `json:"mentions"`
}

// Extractor is the entity-extraction stage executor.
type Extractor struct {
	service   Service
	memoizer  *stagecache.Memoizer
	batchSize int
	logger    *slog.Logger
}

// NewExtractor constructs the extraction stage executor. Chunk texts are
// memoized through the supplied memoizer so reprocessing only pays for
// chunks whose text changed.
func NewExtractor(service Service, memoizer *stagecache.Memoizer, batchSize int, logger *slog.Logger) *Extractor {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Extractor{
		service:   service,
		memoizer:  memoizer,
		batchSize: batchSize,
		logger:    logging.NewComponentLogger(logger, "extraction"),
	}
}

func (e *Extractor) Stage() pipeline.Stage {
	return pipeline.StageExtractEntities
}

// Execute extracts entity mentions from every chunk in the input payload.
func (e *Extractor) Execute(ctx context.Context, req stage.Request) (*stage.Result, error) {
	logger := logging.WithContext(ctx, e.logger)

	var chunks chunking.ChunkSet
	if err := json.Unmarshal(req.Content, &chunks); err != nil {
		return nil, services.Wrap(services.ErrValidation, "extract_entities", "parse input",
			"chunk payload missing or invalid", err)
	}
	if len(chunks.Chunks) == 0 {
		return nil, services.Wrap(services.ErrValidation, "extract_entities", "parse input",
			"chunk payload contains no chunks", nil)
	}

	items := make([][]byte, len(chunks.Chunks))
	for i, chunk := range chunks.Chunks {
		items[i] = []byte(chunk.Text)
	}

	batched, err := e.memoizer.DoBatch(ctx, pipeline.StageExtractEntities, req.DocumentID, items, e.extractBatch)
	if err != nil {
		return nil, err
	}

	var mentions []Mention
	cached := 0
	for i, item := range batched {
		if item.FromCache {
			cached++
		}
		var chunkMentions []Mention
		if err := json.Unmarshal(item.Payload, &chunkMentions); err != nil {
			return nil, services.Wrap(services.ErrValidation, "extract_entities", "decode chunk result",
				"cached chunk payload invalid", err)
		}
		for j := range chunkMentions {
			chunkMentions[j].ChunkID = chunks.Chunks[i].ID
		}
		mentions = append(mentions, chunkMentions...)
	}

	payload, err := json.Marshal(Result{Mentions: mentions})
	if err != nil {
		return nil, fmt.Errorf("marshal extraction result: %w", err)
	}

	logger.Info("entities extracted",
		logging.Int("chunks", len(chunks.Chunks)),
		logging.Int("cached_chunks", cached),
		logging.Int("mentions", len(mentions)))

	return &stage.Result{
		Payload: payload,
		Summary: fmt.Sprintf("%d mentions from %d chunks", len(mentions), len(chunks.Chunks)),
	}, nil
}

// extractBatch sends uncached chunk texts to the model in fixed-size batches
// and returns one mentions payload per input chunk.
func (e *Extractor) extractBatch(ctx context.Context, missing [][]byte) ([]json.RawMessage, error) {
	payloads := make([]json.RawMessage, 0, len(missing))
	for start := 0; start < len(missing); start += e.batchSize {
		end := start + e.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		texts := make([]string, end-start)
		for i, item := range missing[start:end] {
			texts[i] = string(item)
		}
		batchPayloads, err := e.extractTexts(ctx, texts)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, batchPayloads...)
	}
	return payloads, nil
}

type excerptMentions struct {
	Index    int       `json:"index"`
	Mentions []Mention `json:"mentions"`
}

func (e *Extractor) extractTexts(ctx context.Context, texts []string) ([]json.RawMessage, error) {
	content, err := e.service.CompleteJSON(ctx, systemPrompt, buildUserPrompt(texts))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Excerpts []excerptMentions `json:"excerpts"`
	}
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "extract_entities", "decode response",
			"model returned malformed JSON", err)
	}

	byIndex := make(map[int][]Mention, len(parsed.Excerpts))
	for _, excerpt := range parsed.Excerpts {
		byIndex[excerpt.Index] = excerpt.Mentions
	}

	payloads := make([]json.RawMessage, len(texts))
	for i := range texts {
		mentions := cleanMentions(byIndex[i])
		payload, err := json.Marshal(mentions)
		if err != nil {
			return nil, fmt.Errorf("marshal chunk mentions: %w", err)
		}
		payloads[i] = payload
	}
	return payloads, nil
}

var knownTypes = map[string]struct{}{
	"person":       {},
	"organization": {},
	"location":     {},
	"date":         {},
	"money":        {},
	"statute":      {},
	"case":         {},
}

// cleanMentions drops entries the model should not have produced: empty
// text, unknown types, out-of-range confidence.
func cleanMentions(mentions []Mention) []Mention {
	cleaned := make([]Mention, 0, len(mentions))
	for _, mention := range mentions {
		mention.Text = strings.TrimSpace(mention.Text)
		mention.Type = strings.ToLower(strings.TrimSpace(mention.Type))
		if mention.Text == "" {
			continue
		}
		if _, ok := knownTypes[mention.Type]; !ok {
			continue
		}
		if mention.Confidence < 0 || mention.Confidence > 1 {
			mention.Confidence = 0.5
		}
		cleaned = append(cleaned, mention)
	}
	return cleaned
}

func (e *Extractor) Retryable(err error) bool {
	return services.Retryable(err)
}

func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	if e.service == nil {
		return stage.Unhealthy("extraction", "llm service not configured")
	}
	if err := e.service.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("extraction", err.Error())
	}
	return stage.Healthy("extraction")
}
