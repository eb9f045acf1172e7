package queue

import (
	"encoding/json"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskOrderAutoDeliver 自动发货任务
	TaskOrderAutoDeliver = constants.TaskOrderAutoDeliver
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// OrderAutoDeliverPayload 自动发货任务载荷
type OrderAutoDeliverPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewOrderAutoDeliverTask 创建自动发货任务
func NewOrderAutoDeliverTask(payload OrderAutoDeliverPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderAutoDeliver, body), nil
}
