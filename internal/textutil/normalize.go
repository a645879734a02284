package textutil

import "strings"

// corporateSuffixes are dropped when comparing organization names so
// "Acme Holdings LLC" and "Acme Holdings, L.L.C." canonicalize together.
var corporateSuffixes = map[string]struct{}{
	"llc":  {},
	"llp":  {},
	"lp":   {},
	"inc":  {},
	"corp": {},
	"co":   {},
	"ltd":  {},
	"plc":  {},
	"pc":   {},
	"pa":   {},
}

// honorifics are dropped when comparing person names.
var honorifics = map[string]struct{}{
	"mr":  {},
	"mrs": {},
	"ms":  {},
	"dr":  {},
	"hon": {},
	"esq": {},
	"jr":  {},
	"sr":  {},
	"ii":  {},
	"iii": {},
	"iv":  {},
}

// NormalizeEntityName produces the comparison form of an entity name:
// lowercased, punctuation stripped, corporate suffixes and honorifics
// removed. The display name keeps its original form; only matching uses this.
func NormalizeEntityName(name string) string {
	tokens := Tokenize(name)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := corporateSuffixes[token]; ok {
			continue
		}
		if _, ok := honorifics[token]; ok {
			continue
		}
		kept = append(kept, token)
	}
	if len(kept) == 0 {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return strings.Join(kept, " ")
}
