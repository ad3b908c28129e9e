// Package notifier 通知派发：从队列取通知意图，推给各个通道
package notifier

import (
	"context"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// Dispatcher 单个通知通道
// Send 失败只影响自己的通道，不影响其它通道和队列确认
type Dispatcher interface {
	Name() string
	Send(ctx context.Context, n *models.Notification) error
}
