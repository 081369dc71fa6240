package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCartShare = "cart.share"

const TaskPoolReminder = "tasks.pool_reminder"

// CartSharePayload identifies the cart to deliver to the external
// application.
type CartSharePayload struct {
	CartID     string `json:"cartId"`
	CustomerID string `json:"customerId"`
}

// PoolReminderPayload configures one reminder sweep over the task pool.
type PoolReminderPayload struct {
	OlderThanMinutes int `json:"olderThanMinutes"`
}

func NewCartShareTask(payload CartSharePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartShare, data), nil
}

func ParseCartSharePayload(task *asynq.Task) (CartSharePayload, error) {
	var payload CartSharePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CartSharePayload{}, err
	}
	return payload, nil
}

func NewPoolReminderTask(payload PoolReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPoolReminder, data), nil
}

func ParsePoolReminderPayload(task *asynq.Task) (PoolReminderPayload, error) {
	var payload PoolReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PoolReminderPayload{}, err
	}
	return payload, nil
}
