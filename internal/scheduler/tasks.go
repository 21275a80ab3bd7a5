package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskSchedulingPass = "scheduling.run_pass"

type SchedulingPassPayload struct {
	RunDate string `json:"runDate"`
}

func NewSchedulingPassTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(SchedulingPassPayload{
		RunDate: asOf.UTC().Format(time.DateOnly),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSchedulingPass, data), nil
}

func ParseSchedulingPassPayload(task *asynq.Task) (SchedulingPassPayload, error) {
	var payload SchedulingPassPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SchedulingPassPayload{}, err
	}
	return payload, nil
}
