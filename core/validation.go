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

import (
	"fmt"
	"time"
)

// DurationBounds is the accepted range of video durations, inclusive.
type DurationBounds struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDurationBounds accepts videos between two minutes and one hour.
var DefaultDurationBounds = DurationBounds{Min: 2 * time.Minute, Max: time.Hour}

// ValidateSource checks a resolved source against submission rules.
//
// Validation rules:
//   - URL must not be empty
//   - Platform must be Bilibili or YouTube
//   - the resolver must have reported the source as valid
//   - Duration must lie within bounds
//
// Every returned error wraps ErrValidation.
func ValidateSource(src *Source, bounds DurationBounds) error {
	if src == nil || src.URL == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyURL)
	}

	if src.Platform != PlatformBilibili && src.Platform != PlatformYouTube {
		return fmt.Errorf("%w: %w", ErrValidation, ErrUnsupportedPlatform)
	}

	if !src.Valid {
		msg := src.ErrorMsg
		if msg == "" {
			msg = "source could not be resolved"
		}
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	if src.Duration < bounds.Min || src.Duration > bounds.Max {
		return fmt.Errorf("%w: %w: %s not within [%s, %s]",
			ErrValidation, ErrDurationOutOfRange, src.Duration, bounds.Min, bounds.Max)
	}

	return nil
}

// ValidateTask validates a Task record read back from storage.
//
// Validation rules:
//   - ID must not be empty
//   - Steps must have exactly StepCount entries
//   - Percent must be within 0..100
func ValidateTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}
	if task.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTask)
	}
	if len(task.Steps) != StepCount {
		return fmt.Errorf("%w: %d steps, want %d", ErrInvalidTask, len(task.Steps), StepCount)
	}
	if task.Percent < 0 || task.Percent > 100 {
		return fmt.Errorf("%w: percent %d", ErrInvalidTask, task.Percent)
	}
	return nil
}
