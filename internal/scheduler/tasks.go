// Package scheduler runs the background maintenance jobs: sweeping
// expired order sessions and emitting the unanswered-search digest.
// Tasks travel through asynq; the dispatcher enqueues them on a fixed
// cadence and the worker consumes them.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskSessionSweep = "orders.sessions.sweep"
	TaskSearchDigest = "knowledge.search_digest"
)

// SearchDigestPayload carries the lookback window as a Go duration
// string so the worker does not depend on the dispatcher's config.
type SearchDigestPayload struct {
	Window string `json:"window"`
}

func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}

func NewSearchDigestTask(payload SearchDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSearchDigest, data), nil
}

func ParseSearchDigestPayload(task *asynq.Task) (SearchDigestPayload, error) {
	var payload SearchDigestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SearchDigestPayload{}, err
	}
	return payload, nil
}
