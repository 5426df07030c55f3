package core

// StudyResult is the fixed output schema of a finished task.
type StudyResult struct {
	Summary         string           `json:"summary"`
	Highlights      []string         `json:"highlights"`
	Keywords        []string         `json:"keywords"`
	LearningGuide   any              `json:"learningGuide"`
	Chapters        []Chapter        `json:"chapters"`
	KnowledgePoints []KnowledgePoint `json:"knowledgePoints"`
	References      []Reference      `json:"references"`
	Quiz            Quiz             `json:"quiz"`
}

type Chapter struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Time    string `json:"time"`
	Summary string `json:"summary"`
}

type KnowledgePoint struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Prerequisites []string `json:"prerequisites"`
}

type Reference struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

type Quiz struct {
	MultipleChoice []MultipleChoiceQuestion `json:"multipleChoice"`
	Essay          []EssayQuestion          `json:"essay"`
}

type MultipleChoiceQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

type EssayQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
