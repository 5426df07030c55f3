package generation

import (
	"strings"

	"github.com/poiesic/studyforge/core"
)

// Assemble decodes and normalizes every module's raw output into the
// result schema. Missing modules produce empty sections.
func Assemble(raws map[Module]string, works []core.Work) *core.StudyResult {
	decode := func(m Module) Value {
		raw, ok := raws[m]
		if !ok {
			return Value{Kind: KindOpaque}
		}
		return Decode(raw)
	}

	return &core.StudyResult{
		Summary:         NormalizeSummary(decode(ModuleSummary)),
		Highlights:      NormalizeHighlights(decode(ModuleHighlights)),
		Keywords:        NormalizeKeywords(decode(ModuleKeywords)),
		LearningGuide:   NormalizeLearningGuide(decode(ModuleStudyGuide)),
		Chapters:        NormalizeChapters(decode(ModuleChapters)),
		KnowledgePoints: NormalizeKnowledgePoints(decode(ModuleKnowledgePoints)),
		References:      NormalizeReferences(Decode(works)),
		Quiz:            NormalizeQuiz(decode(ModuleMultipleChoice), decode(ModuleEssay)),
	}
}

// LiteratureQuery picks the literature search query: the summary when
// there is one, otherwise the keywords joined by spaces.
func LiteratureQuery(summaryRaw, keywordsRaw string) string {
	if s := NormalizeSummary(Decode(summaryRaw)); s != "" {
		return s
	}
	return strings.Join(NormalizeKeywords(Decode(keywordsRaw)), " ")
}
