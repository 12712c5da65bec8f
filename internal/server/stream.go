package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	subscriberBuffer = 16
	keepAliveEvery   = 30 * time.Second
)

// ProgressEvent is one update on a job's stream. Seq increases per job and is
// sent as the SSE event id.
type ProgressEvent struct {
	Seq           uint64    `json:"seq"`
	JobID         string    `json:"jobId"`
	State         JobState  `json:"state"`
	Iterations    int       `json:"iterations"`
	BestLength    float64   `json:"bestLength"`
	CurrentLength float64   `json:"currentLength"`
	Temperature   float64   `json:"temperature"`
	Accepted      int       `json:"accepted"`
	Timestamp     time.Time `json:"timestamp"`
}

func progressEventFor(job Job) ProgressEvent {
	return ProgressEvent{
		JobID:         job.ID,
		State:         job.State,
		Iterations:    job.Iterations,
		BestLength:    job.BestLength,
		CurrentLength: job.CurrentLength,
		Temperature:   job.Temperature,
		Accepted:      job.Accepted,
		Timestamp:     time.Now(),
	}
}

// topic is the per-job fan-out state.
type topic struct {
	subs map[chan ProgressEvent]struct{}
	seq  uint64
	last *ProgressEvent
}

// ProgressHub fans job progress out to stream subscribers. Slow subscribers
// drop events rather than stall the publisher; the latest event of a running
// job is replayed to anyone who subscribes later. A finished job's topic is
// dropped once its last subscriber leaves.
type ProgressHub struct {
	mu     sync.Mutex
	topics map[string]*topic
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{topics: make(map[string]*topic)}
}

func (h *ProgressHub) topic(jobID string) *topic {
	t, ok := h.topics[jobID]
	if !ok {
		t = &topic{subs: make(map[chan ProgressEvent]struct{})}
		h.topics[jobID] = t
	}
	return t
}

// Subscribe returns a channel of events for jobID and a func that detaches it.
// The func is safe to call more than once.
func (h *ProgressHub) Subscribe(jobID string) (<-chan ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ProgressEvent, subscriberBuffer)
	t := h.topic(jobID)
	t.subs[ch] = struct{}{}
	if t.last != nil {
		ch <- *t.last
	}
	slog.Debug("Stream subscriber added", "job_id", jobID, "subscribers", len(t.subs))

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(jobID, ch) })
	}
}

func (h *ProgressHub) unsubscribe(jobID string, ch chan ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[jobID]
	if !ok {
		return
	}
	if _, ok := t.subs[ch]; ok {
		delete(t.subs, ch)
		close(ch)
	}
	h.dropIdle(jobID, t)
}

// dropIdle forgets a topic nobody listens to once there is nothing left to
// replay for it. Caller holds h.mu.
func (h *ProgressHub) dropIdle(jobID string, t *topic) {
	if len(t.subs) > 0 {
		return
	}
	if t.last == nil || t.last.State.Finished() {
		delete(h.topics, jobID)
	}
}

// Publish stamps ev with the next sequence number and delivers it.
func (h *ProgressHub) Publish(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.topic(ev.JobID)
	t.seq++
	ev.Seq = t.seq
	t.last = &ev

	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("Stream subscriber lagging, event dropped", "job_id", ev.JobID, "seq", ev.Seq)
		}
	}
	if ev.State.Finished() {
		h.dropIdle(ev.JobID, t)
	}
}

func (h *ProgressHub) topicCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics)
}

// Subscribers reports how many streams are attached to jobID.
func (h *ProgressHub) Subscribers(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.topics[jobID]; ok {
		return len(t.subs)
	}
	return 0
}

// handleJobStream serves GET /api/v1/jobs/{id}/stream as server-sent events.
// The stream ends after the job reaches a final state.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	events, unsubscribe := s.jobManager.hub.Subscribe(jobID)
	defer unsubscribe()

	// The snapshot goes first so a client always sees the current state,
	// even before the worker publishes anything.
	if err := writeSSE(w, progressEventFor(job)); err != nil {
		slog.Error("Failed to write stream event", "job_id", jobID, "error", err)
		return
	}
	flusher.Flush()
	if job.State.Finished() {
		return
	}

	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Stream client went away", "job_id", jobID)
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				slog.Error("Failed to write stream event", "job_id", jobID, "error", err)
				return
			}
			flusher.Flush()
			if ev.State.Finished() {
				return
			}

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSE frames ev as a "progress" event, or "done" once the job is final.
func writeSSE(w http.ResponseWriter, ev ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	name := "progress"
	if ev.State.Finished() {
		name = "done"
	}
	if ev.Seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", ev.Seq); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
