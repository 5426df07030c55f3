package core

import (
	"fmt"
	"math"
	"time"
)

// StepCount is the fixed number of pipeline steps every task carries.
const StepCount = 8

// Step indices, in execution order.
const (
	StepDownload = iota
	StepSplit
	StepUpload
	StepTranscribe
	StepIndex
	StepLiterature
	StepContent
	StepQuiz
)

// StepNames are the fixed labels of the pipeline steps.
var StepNames = [StepCount]string{
	"Downloading media",
	"Splitting audio",
	"Uploading audio segments",
	"Transcribing audio",
	"Indexing transcript and generating summary",
	"Searching literature",
	"Generating highlights, chapters, knowledge points and study guide",
	"Generating quiz",
}

// NewTask returns a running task with every step pending.
func NewTask(id, sourceURL, title string, now time.Time) *Task {
	steps := make([]Step, StepCount)
	for i, name := range StepNames {
		steps[i] = Step{Name: name, Status: StepPending}
	}
	return &Task{
		ID:          id,
		Status:      TaskRunning,
		Steps:       steps,
		CurrentStep: 1,
		VideoTitle:  title,
		SourceURL:   sourceURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Advance applies one step transition. It is the only way step state changes.
//
// It sets the step's status and detail, moves CurrentStep to stepIndex+1,
// recomputes Percent as round(100*(stepIndex+done)/StepCount) and sets or
// clears Error. An error status also marks the whole task as failed.
func (t *Task) Advance(stepIndex int, status StepStatus, detail string, now time.Time) error {
	if stepIndex < 0 || stepIndex >= len(t.Steps) {
		return fmt.Errorf("%w: %d", ErrInvalidStep, stepIndex)
	}
	if t.Status == TaskDone || t.Status == TaskFailed {
		return fmt.Errorf("%w: %s", ErrTaskTerminal, t.ID)
	}
	step := &t.Steps[stepIndex]
	if !isValidTransition(step.Status, status) {
		return fmt.Errorf("%w: step %d %s -> %s", ErrInvalidTransition, stepIndex+1, step.Status, status)
	}

	step.Status = status
	step.Detail = detail
	t.CurrentStep = stepIndex + 1

	completed := stepIndex
	if status == StepDone {
		completed++
	}
	t.Percent = int(math.Round(100 * float64(completed) / float64(StepCount)))

	if status == StepError {
		t.Error = &TaskError{Step: stepIndex + 1, Message: detail}
		t.Status = TaskFailed
	} else {
		t.Error = nil
	}
	t.UpdatedAt = now
	return nil
}

func isValidTransition(from, to StepStatus) bool {
	switch from {
	case StepPending:
		return to == StepProcessing || to == StepError
	case StepProcessing:
		return to == StepProcessing || to == StepDone || to == StepError
	default:
		return false
	}
}

// Finish stores the result and marks the task done. Every step must be done.
func (t *Task) Finish(result *StudyResult, now time.Time) error {
	if t.Status != TaskRunning {
		return fmt.Errorf("%w: %s", ErrTaskTerminal, t.ID)
	}
	for i, s := range t.Steps {
		if s.Status != StepDone {
			return fmt.Errorf("%w: step %d is %s", ErrInvalidTransition, i+1, s.Status)
		}
	}
	t.Result = result
	t.Status = TaskDone
	t.Percent = 100
	t.UpdatedAt = now
	return nil
}

// Clone returns a deep copy safe to hand to readers.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Steps = append([]Step(nil), t.Steps...)
	if t.Error != nil {
		e := *t.Error
		c.Error = &e
	}
	// Result is written once by Finish and never mutated afterwards.
	return &c
}

// Progress returns the poller view of the task.
func (t *Task) Progress() Progress {
	p := Progress{
		CurrentStep: t.CurrentStep,
		Percent:     t.Percent,
		Steps:       append([]Step(nil), t.Steps...),
		VideoTitle:  t.VideoTitle,
		Status:      t.Status,
	}
	if t.Error != nil {
		e := *t.Error
		p.Error = &e
	}
	return p
}

// Payload returns the result view of the task, or ErrTaskFailed / ErrTaskNotReady.
func (t *Task) Payload() (ResultPayload, error) {
	switch t.Status {
	case TaskFailed:
		msg := "task failed"
		if t.Error != nil {
			msg = fmt.Sprintf("step %d: %s", t.Error.Step, t.Error.Message)
		}
		return ResultPayload{}, fmt.Errorf("%w: %s", ErrTaskFailed, msg)
	case TaskDone:
		return ResultPayload{
			Status:     TaskDone,
			VideoURL:   t.VideoURL,
			AudioURL:   t.AudioURL,
			VideoTitle: t.VideoTitle,
			Result:     t.Result,
		}, nil
	default:
		return ResultPayload{}, ErrTaskNotReady
	}
}
