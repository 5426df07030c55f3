package generation

// Module names one independently generated section of the study result.
type Module string

const (
	ModuleSummary         Module = "summary"
	ModuleKeywords        Module = "keywords"
	ModuleHighlights      Module = "highlights"
	ModuleChapters        Module = "chapters"
	ModuleKnowledgePoints Module = "knowledgePoints"
	ModuleStudyGuide      Module = "studyGuide"
	ModuleMultipleChoice  Module = "multipleChoice"
	ModuleEssay           Module = "essay"
)

// AllModules lists every module in generation order.
var AllModules = []Module{
	ModuleSummary, ModuleKeywords,
	ModuleHighlights, ModuleChapters, ModuleKnowledgePoints, ModuleStudyGuide,
	ModuleMultipleChoice, ModuleEssay,
}

var instructions = map[Module]string{
	ModuleSummary:         summaryInstruction,
	ModuleKeywords:        keywordsInstruction,
	ModuleHighlights:      highlightsInstruction,
	ModuleChapters:        chaptersInstruction,
	ModuleKnowledgePoints: knowledgePointsInstruction,
	ModuleStudyGuide:      studyGuideInstruction,
	ModuleMultipleChoice:  multipleChoiceInstruction,
	ModuleEssay:           essayInstruction,
}

// RAG reports whether the module is generated with the literature context.
func (m Module) RAG() bool {
	switch m {
	case ModuleKnowledgePoints, ModuleStudyGuide, ModuleMultipleChoice, ModuleEssay:
		return true
	}
	return false
}

// Instruction returns the module's instruction text, or "" for unknown modules.
func (m Module) Instruction() string {
	return instructions[m]
}

func (m Module) String() string {
	return string(m)
}
