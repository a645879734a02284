package extraction

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a legal document analyst. You extract named entities from excerpts of legal documents.

Entity types you recognize:
- person: individuals (parties, attorneys, judges, witnesses)
- organization: companies, firms, agencies, courts
- location: places, addresses, jurisdictions
- date: dates and date ranges
- money: monetary amounts
- statute: statutes, regulations, and code citations
- case: case names and docket citations

Rules:
- Report every distinct mention, quoting the exact text as it appears.
- Assign exactly one type per mention.
- Confidence is a number between 0 and 1.
- If an excerpt contains no entities, return an empty mentions array for it.

Respond with JSON only, in this shape:
{"excerpts": [{"index": 0, "mentions": [{"text": "...", "type": "person", "confidence": 0.95}]}]}

Include one excerpts element for every numbered excerpt, in order.`

// buildUserPrompt numbers the batch of chunk texts so the model's response
// can be matched back to its inputs.
func buildUserPrompt(texts []string) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Extract entities from the following %d excerpt(s).\n", len(texts))
	for i, text := range texts {
		fmt.Fprintf(&builder, "\n--- Excerpt %d ---\n%s\n", i, text)
	}
	return builder.String()
}
