package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TaskStatus is the overall state of a task.
type TaskStatus string

const (
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "error"
)

// StepStatus is the state of one pipeline step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepDone       StepStatus = "done"
	StepError      StepStatus = "error"
)

// Step is one named stage of the analysis pipeline as shown to pollers.
type Step struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail"`
}

// TaskError records the step that failed. Step is 1-based, like Task.CurrentStep.
type TaskError struct {
	Step    int    `json:"step"`
	Message string `json:"message"`
}

// Task is the full state of one analysis request.
type Task struct {
	ID          string       `json:"id"`
	Status      TaskStatus   `json:"status"`
	Steps       []Step       `json:"steps"`
	CurrentStep int          `json:"currentStep"`
	Percent     int          `json:"percent"`
	Error       *TaskError   `json:"error"`
	VideoTitle  string       `json:"videoTitle"`
	VideoURL    string       `json:"videoUrl,omitempty"`
	AudioURL    string       `json:"audioUrl,omitempty"`
	SourceURL   string       `json:"sourceUrl"`
	CaseID      string       `json:"caseId,omitempty"`
	Result      *StudyResult `json:"result,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Progress is the read model returned to pollers.
type Progress struct {
	CurrentStep int        `json:"currentStep"`
	Percent     int        `json:"percent"`
	Steps       []Step     `json:"steps"`
	Error       *TaskError `json:"error"`
	VideoTitle  string     `json:"videoTitle"`
	Status      TaskStatus `json:"status"`
}

// ResultPayload is returned once a task has finished successfully.
type ResultPayload struct {
	Status     TaskStatus   `json:"status"`
	VideoURL   string       `json:"videoUrl"`
	AudioURL   string       `json:"audioUrl"`
	VideoTitle string       `json:"videoTitle"`
	Result     *StudyResult `json:"result"`
}

// Chunk is a slice of source text. Start and End are rune offsets.
type Chunk struct {
	Content string `json:"content"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// VectorRecord is an embedded transcript chunk held by the vector index.
type VectorRecord struct {
	ID        ID
	Text      string
	Embedding []float32
	Metadata  map[string]any
}

// Platform identifies a supported video host.
type Platform string

const (
	PlatformBilibili Platform = "bilibili"
	PlatformYouTube  Platform = "youtube"
)

// Source describes a submitted video as reported by a metadata resolver.
type Source struct {
	URL      string
	Platform Platform
	VideoID  string
	Title    string
	Cover    string
	Duration time.Duration
	Valid    bool
	ErrorMsg string
}

// Work is one literature search hit.
type Work struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     string `json:"year,omitempty"`
	Venue    string `json:"venue,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	URL      string `json:"url,omitempty"`
	DOI      string `json:"doi,omitempty"`
	Source   string `json:"source,omitempty"`
}
