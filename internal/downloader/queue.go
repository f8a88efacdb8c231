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

// Package downloader provides the client-side download queue that
// serializes many independent byte fetches against a rate-limited
// upstream. Transfers run strictly one at a time by default, transient
// and throttling failures are retried with exponential backoff, and
// tasks can be cancelled when their media item is no longer needed.
package downloader

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/drivegallery/drivegallery/internal/config"
	errs "github.com/drivegallery/drivegallery/internal/errors"
	"github.com/drivegallery/drivegallery/internal/util/log"
	"github.com/drivegallery/drivegallery/internal/util/metrics"
)

// ProgressFunc receives the transfer completion percentage as it becomes known
type ProgressFunc func(percent int)

// CompleteFunc receives the final payload exactly once on success
type CompleteFunc func(payload []byte)

// ErrorFunc receives the classified failure exactly once after retries are exhausted
type ErrorFunc func(err error)

// CancelFunc removes a task from the queue. Cancelling a pending task is
// complete and synchronous from the worker's point of view; cancelling an
// in-flight task lets the transfer finish but suppresses its callbacks.
type CancelFunc func()

const transferBlockSize = 32 * 1024

// Queue is the bounded-concurrency download queue. One worker goroutine
// owns all task state; Enqueue and cancel calls from other goroutines
// arrive as messages rather than contending on locks.
type Queue struct {
	cfg    *config.QueueConfig
	client *http.Client

	msgs chan func()
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once

	// all fields below are owned by the worker goroutine
	pending     []*task
	active      map[string]*task
	inFlight    int
	cooldown    bool
	cooldownGen int
}

// NewQueue returns a started Queue for the provided configuration
func NewQueue(cfg *config.QueueConfig, client *http.Client) *Queue {
	if client == nil {
		client = http.DefaultClient
	}
	q := &Queue{
		cfg:    cfg,
		client: client,
		msgs:   make(chan func(), 128),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		active: make(map[string]*task),
	}
	go q.run()
	return q
}

// Enqueue appends a download task and starts it as soon as a concurrency
// slot frees up. The returned CancelFunc removes the task; after
// cancellation none of the three callbacks will fire for this id.
func (q *Queue) Enqueue(id, url string, onProgress ProgressFunc, onComplete CompleteFunc, onError ErrorFunc) CancelFunc {
	t := newTask(id, url, onProgress, onComplete, onError)
	q.post(func() {
		if _, ok := q.active[id]; ok {
			// a task for this id is already queued or in flight
			log.Debug("duplicate enqueue ignored", log.Pairs{"id": id})
			return
		}
		q.active[id] = t
		q.pending = append(q.pending, t)
		metrics.QueueTasksPending.Set(float64(len(q.pending)))
		q.dispatch()
	})
	return func() {
		q.post(func() { q.cancel(t) })
	}
}

// Shutdown stops the worker loop. In-flight transfers are abandoned;
// their callbacks will not fire.
func (q *Queue) Shutdown() {
	q.closeOnce.Do(func() { close(q.quit) })
	<-q.done
}

// post delivers a message to the worker loop, dropping it if the queue
// has shut down
func (q *Queue) post(fn func()) {
	select {
	case q.msgs <- fn:
	case <-q.quit:
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case fn := <-q.msgs:
			fn()
		case <-q.quit:
			return
		}
	}
}

// dispatch starts pending transfers while concurrency slots are free and
// the inter-request cooldown has elapsed
func (q *Queue) dispatch() {
	for !q.cooldown && q.inFlight < q.cfg.MaxConcurrent && len(q.pending) > 0 {
		t := q.pending[0]
		q.pending = q.pending[1:]
		metrics.QueueTasksPending.Set(float64(len(q.pending)))
		if t.state != StateQueued {
			continue
		}
		if err := t.transition(StateInFlight); err != nil {
			continue
		}
		q.inFlight++
		go q.transfer(t)
	}
}

// cancel removes the task from the system. Pending tasks are removed
// before they ever contend for a slot; in-flight tasks finish their
// transfer but have their callbacks suppressed from this moment.
func (q *Queue) cancel(t *task) {
	if q.active[t.id] != t {
		return
	}
	t.cancelled.Store(true)

	switch t.state {
	case StateQueued:
		for i, p := range q.pending {
			if p == t {
				q.pending = append(q.pending[:i], q.pending[i+1:]...)
				metrics.QueueTasksPending.Set(float64(len(q.pending)))
				break
			}
		}
		t.transition(StateCancelled)
		delete(q.active, t.id)
		metrics.QueueTaskStatus.WithLabelValues("cancelled").Inc()
	case StateInFlight:
		t.transition(StateCancelled)
		delete(q.active, t.id)
		metrics.QueueTaskStatus.WithLabelValues("cancelled").Inc()
	}
}

// transfer performs one HTTP fetch attempt. It runs outside the worker
// loop and reports its outcome back as a message.
func (q *Queue) transfer(t *task) {
	payload, err := q.fetch(t)
	q.post(func() { q.completeTransfer(t, payload, err) })
}

func (q *Queue) fetch(t *task) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, t.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, errs.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, errs.ErrUpstreamUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	total := resp.ContentLength
	var payload []byte
	var received int64
	buf := make([]byte, transferBlockSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			payload = append(payload, buf[:n]...)
			received += int64(n)
			// never fabricate a percentage when the total length is unknown
			if total > 0 && t.onProgress != nil && !t.cancelled.Load() {
				t.onProgress(int(math.Round(float64(received) / float64(total) * 100)))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, errs.ErrUpstreamUnavailable
		}
	}
	return payload, nil
}

// completeTransfer runs on the worker loop after a transfer attempt ends
func (q *Queue) completeTransfer(t *task, payload []byte, err error) {

	q.inFlight--

	if t.cancelled.Load() {
		// result discarded; the task was already moved to Cancelled
		q.pause(q.cfg.InterRequestDelay)
		q.dispatch()
		return
	}

	if err == nil {
		t.transition(StateSucceeded)
		delete(q.active, t.id)
		metrics.QueueTaskStatus.WithLabelValues("succeeded").Inc()
		if t.onComplete != nil {
			t.onComplete(payload)
		}
		q.pause(q.cfg.InterRequestDelay)
		q.dispatch()
		return
	}

	if errs.IsRetryable(err) && t.attempt < q.cfg.MaxRetries {
		t.attempt++
		t.transition(StateQueued)
		delay := q.cfg.RetryBaseDelay * (1 << t.attempt)
		if delay < q.cfg.InterRequestDelay {
			delay = q.cfg.InterRequestDelay
		}
		metrics.QueueTaskRetries.WithLabelValues(retryReason(err)).Inc()
		log.Debug("transfer backoff scheduled", log.Pairs{"id": t.id,
			"attempt": t.attempt, "delay": delay.String(), "reason": err.Error()})
		// the retrying task keeps its place ahead of waiting work while the
		// backoff pause runs; the concurrency slot itself is already free
		q.pending = append([]*task{t}, q.pending...)
		metrics.QueueTasksPending.Set(float64(len(q.pending)))
		q.pause(delay)
		q.dispatch()
		return
	}

	t.transition(StateFailed)
	delete(q.active, t.id)
	metrics.QueueTaskStatus.WithLabelValues("failed").Inc()
	log.Warn("transfer failed", log.Pairs{"id": t.id, "attempts": strconv.Itoa(t.attempt + 1),
		"detail": err.Error()})
	if t.onError != nil {
		t.onError(err)
	}
	q.pause(q.cfg.InterRequestDelay)
	q.dispatch()
}

// pause suspends dispatching for d without occupying a concurrency
// slot. Overlapping pauses extend each other; the generation counter
// keeps an earlier, shorter timer from ending a later, longer one.
func (q *Queue) pause(d time.Duration) {
	if d <= 0 {
		return
	}
	q.cooldown = true
	q.cooldownGen++
	gen := q.cooldownGen
	time.AfterFunc(d, func() {
		q.post(func() {
			if q.cooldownGen != gen {
				return
			}
			q.cooldown = false
			q.dispatch()
		})
	})
}

func retryReason(err error) string {
	if err == errs.ErrRateLimited {
		return "rate_limited"
	}
	return "transient"
}
