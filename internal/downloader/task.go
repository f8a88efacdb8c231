/**
* Copyright 2025 The Drivegallery Authors
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package downloader

import (
	"fmt"
	"sync/atomic"
)

// State describes where a task is in its lifecycle
type State int

const (
	// StateQueued indicates the task is waiting for a concurrency slot,
	// either freshly enqueued or waiting out a retry backoff
	StateQueued = State(iota)
	// StateInFlight indicates the task's transfer is running
	StateInFlight
	// StateSucceeded is terminal; the payload was delivered
	StateSucceeded
	// StateFailed is terminal; the retry budget was exhausted or the
	// failure was not retryable
	StateFailed
	// StateCancelled is terminal; the caller withdrew the task
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// validTransitions enumerates the reachable successor states. Terminal
// states have no successors, so a finished task can never be revived.
var validTransitions = map[State][]State{
	StateQueued:   {StateInFlight, StateCancelled},
	StateInFlight: {StateQueued, StateSucceeded, StateFailed, StateCancelled},
}

type task struct {
	id      string
	url     string
	attempt int
	state   State

	// cancelled is read by the transfer goroutine while gating progress
	// callbacks; all other task fields are owned by the worker loop
	cancelled atomic.Bool

	onProgress ProgressFunc
	onComplete CompleteFunc
	onError    ErrorFunc
}

func newTask(id, url string, onProgress ProgressFunc, onComplete CompleteFunc, onError ErrorFunc) *task {
	return &task{id: id, url: url, onProgress: onProgress,
		onComplete: onComplete, onError: onError}
}

// transition moves the task to a successor state, rejecting any move the
// lifecycle does not permit
func (t *task) transition(to State) error {
	for _, s := range validTransitions[t.state] {
		if s == to {
			t.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid task transition from %s to %s", t.state, to)
}
