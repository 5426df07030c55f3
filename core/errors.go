// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Submission validation errors
var (
	// ErrValidation wraps every reason a submission is rejected before a task exists.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyURL indicates no source URL was submitted.
	ErrEmptyURL = errors.New("source url cannot be empty")

	// ErrUnsupportedPlatform indicates the URL is not a Bilibili or YouTube video.
	ErrUnsupportedPlatform = errors.New("only Bilibili or YouTube videos are supported")

	// ErrDurationOutOfRange indicates the video is too short or too long.
	ErrDurationOutOfRange = errors.New("video duration out of range")
)

// Task state errors
var (
	// ErrInvalidTask indicates a Task record failed validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidStep indicates a step index outside 0..StepCount-1.
	ErrInvalidStep = errors.New("step index out of range")

	// ErrInvalidTransition indicates a step status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrTaskTerminal indicates a mutation of a task that already finished.
	ErrTaskTerminal = errors.New("task already finished")

	// ErrTaskFailed is returned by result queries for tasks that ended in error.
	ErrTaskFailed = errors.New("task failed")

	// ErrTaskNotReady is returned by result queries for tasks still running.
	ErrTaskNotReady = errors.New("task not finished")
)
