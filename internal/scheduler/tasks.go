package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFunnelDigest = "reports.funnel_digest"

type FunnelDigestPayload struct {
	// Recipients overrides the configured digest list when non-empty.
	Recipients []string `json:"recipients,omitempty"`
}

func NewFunnelDigestTask(payload FunnelDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFunnelDigest, data), nil
}

func ParseFunnelDigestPayload(task *asynq.Task) (FunnelDigestPayload, error) {
	var payload FunnelDigestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FunnelDigestPayload{}, err
	}
	return payload, nil
}
