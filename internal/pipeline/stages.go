package pipeline

import "strings"

// Stage identifies one discrete step of the document pipeline.
type Stage string

const (
	StageOCR                Stage = "ocr"
	StageChunk              Stage = "chunk"
	StageExtractEntities    Stage = "extract_entities"
	StageResolveEntities    Stage = "resolve_entities"
	StageBuildRelationships Stage = "build_relationships"
	StageFinalize           Stage = "finalize"
)

var stageOrder = []Stage{
	StageOCR,
	StageChunk,
	StageExtractEntities,
	StageResolveEntities,
	StageBuildRelationships,
	StageFinalize,
}

var stageIndex = func() map[Stage]int {
	idx := make(map[Stage]int, len(stageOrder))
	for i, stage := range stageOrder {
		idx[stage] = i
	}
	return idx
}()

// Stages returns the ordered list of pipeline stages.
func Stages() []Stage {
	cp := make([]Stage, len(stageOrder))
	copy(cp, stageOrder)
	return cp
}

// FirstStage returns the entry point of the pipeline.
func FirstStage() Stage {
	return stageOrder[0]
}

// LastStage returns the terminal stage of the pipeline.
func LastStage() Stage {
	return stageOrder[len(stageOrder)-1]
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageIndex[normalized]
	return normalized, ok
}

// Predecessor returns the stage immediately before s, or false when s is the
// first stage or unknown.
func (s Stage) Predecessor() (Stage, bool) {
	idx, ok := stageIndex[s]
	if !ok || idx == 0 {
		return "", false
	}
	return stageOrder[idx-1], true
}

// Next returns the stage immediately after s, or false when s is the last
// stage or unknown.
func (s Stage) Next() (Stage, bool) {
	idx, ok := stageIndex[s]
	if !ok || idx == len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[idx+1], true
}

// Before reports whether s precedes other in pipeline order.
func (s Stage) Before(other Stage) bool {
	si, ok := stageIndex[s]
	if !ok {
		return false
	}
	oi, ok := stageIndex[other]
	if !ok {
		return false
	}
	return si < oi
}
