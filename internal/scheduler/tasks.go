package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskVisitDispatch = "appointments.visit_dispatch"

type VisitDispatchPayload struct {
	AppointmentID string `json:"appointmentId"`
}

func NewVisitDispatchTask(payload VisitDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVisitDispatch, data), nil
}

func ParseVisitDispatchPayload(task *asynq.Task) (VisitDispatchPayload, error) {
	var payload VisitDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VisitDispatchPayload{}, err
	}
	return payload, nil
}
