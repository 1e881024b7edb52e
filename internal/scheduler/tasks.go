package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOfferExpiry = "assignments.offer.expiry"

type OfferExpiryPayload struct {
	AssignmentID string `json:"assignmentId"`
}

func NewOfferExpiryTask(payload OfferExpiryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOfferExpiry, data), nil
}

func ParseOfferExpiryPayload(task *asynq.Task) (OfferExpiryPayload, error) {
	var payload OfferExpiryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OfferExpiryPayload{}, err
	}
	return payload, nil
}

// offerExpiryTaskID keys the task by assignment so scheduling is idempotent
// and the task can be found again for cancellation.
func offerExpiryTaskID(assignmentID string) string {
	return "offer-expiry:" + assignmentID
}
