package literature

import (
	"strings"

	"github.com/poiesic/studyforge/core"
)

// FormatContext renders works as a prompt block, one labelled line per
// field and a blank line between works. Empty optional fields are omitted.
func FormatContext(works []core.Work) string {
	blocks := make([]string, 0, len(works))
	for _, w := range works {
		lines := []string{
			"Title: " + w.Title,
			"Author: " + w.Author,
		}
		for _, f := range []struct{ label, value string }{
			{"Year", w.Year},
			{"Venue", w.Venue},
			{"Abstract", w.Abstract},
			{"URL", w.URL},
			{"DOI", w.DOI},
		} {
			if f.value != "" {
				lines = append(lines, f.label+": "+f.value)
			}
		}
		lines = append(lines, "Source: "+w.Source)
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
