package semantic

import (
	"fmt"
	"strings"
)

// queryPrefixes steer retrieval toward what each generation module needs.
var queryPrefixes = map[string]string{
	"summary":         "main content overview",
	"keywords":        "key terms core vocabulary",
	"highlights":      "highlights important points",
	"chapters":        "topic changes sections",
	"knowledgePoints": "knowledge points key concepts definitions",
	"studyGuide":      "study guide learning method",
	"multipleChoice":  "exercises test questions",
	"essay":           "exercises discussion questions",
	"references":      "references related resources",
}

// EnhanceQuery prefixes query with module-specific search terms.
// Unknown modules return query unchanged.
func EnhanceQuery(module, query string) string {
	prefix, ok := queryPrefixes[module]
	if !ok {
		return query
	}
	return prefix + " " + query
}

// NoMatches is the excerpt block used when retrieval finds nothing.
const NoMatches = "No relevant transcript excerpts found."

// FormatResults renders matches as a numbered excerpt block with rune ranges.
func FormatResults(matches []Match) string {
	if len(matches) == 0 {
		return NoMatches
	}

	var b strings.Builder
	b.WriteString("Relevant transcript excerpts:\n")
	for i, m := range matches {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. ", i+1)
		start, okStart := m.Record.Metadata["start"].(int)
		end, okEnd := m.Record.Metadata["end"].(int)
		if okStart && okEnd {
			fmt.Fprintf(&b, "[chars %d-%d] ", start, end)
		}
		b.WriteString(strings.TrimSpace(m.Record.Text))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
