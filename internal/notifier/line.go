package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/config"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// LineDispatcher LINE push 通道
// 普通状态消息发单条 bubble，紧急告警附地图链接和电话
type LineDispatcher struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewLineDispatcher 创建 LINE 通道
func NewLineDispatcher(cfg *config.LineConfig, logger *zap.Logger) *LineDispatcher {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.AccessToken)

	return &LineDispatcher{
		httpClient: client,
		logger:     logger,
	}
}

func (d *LineDispatcher) Name() string { return "line" }

// Send 推送到监护人的 LINE
func (d *LineDispatcher) Send(ctx context.Context, n *models.Notification) error {
	if n.LineID == "" {
		d.logger.Debug("Notification has no LINE target, skipped",
			zap.String("event_id", n.EventID),
		)
		return nil
	}

	payload := map[string]any{
		"to":       n.LineID,
		"messages": []any{d.buildMessage(n)},
	}

	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post("")
	if err != nil {
		return fmt.Errorf("failed to call LINE push API: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("LINE push API returned %d: %s", resp.StatusCode(), resp.String())
	}

	d.logger.Info("LINE notification sent",
		zap.String("event_id", n.EventID),
		zap.String("kind", string(n.Kind)),
	)
	return nil
}

// buildMessage 组装 flex bubble
func (d *LineDispatcher) buildMessage(n *models.Notification) map[string]any {
	contents := []any{
		map[string]any{
			"type":   "text",
			"text":   n.Title,
			"weight": "bold",
			"size":   "lg",
			"color":  kindColor(n.Kind),
			"wrap":   true,
		},
		map[string]any{
			"type": "text",
			"text": n.Text,
			"size": "sm",
			"wrap": true,
		},
	}
	if n.Value != "" {
		contents = append(contents, map[string]any{
			"type":  "text",
			"text":  n.Value,
			"size":  "sm",
			"color": "#6B7280",
		})
	}

	body := map[string]any{
		"type":     "box",
		"layout":   "vertical",
		"spacing":  "sm",
		"contents": contents,
	}

	bubble := map[string]any{
		"type": "bubble",
		"body": body,
	}

	// 紧急告警：地图链接 + 拨打电话按钮
	if n.Kind.Critical() {
		buttons := []any{}
		if n.Latitude != nil && n.Longitude != nil {
			buttons = append(buttons, map[string]any{
				"type":  "button",
				"style": "primary",
				"color": kindColor(n.Kind),
				"action": map[string]any{
					"type":  "uri",
					"label": "View location",
					"uri":   fmt.Sprintf("https://www.google.com/maps?q=%f,%f", *n.Latitude, *n.Longitude),
				},
			})
		}
		if n.Phone != "" {
			buttons = append(buttons, map[string]any{
				"type":  "button",
				"style": "secondary",
				"action": map[string]any{
					"type":  "uri",
					"label": "Call",
					"uri":   "tel:" + n.Phone,
				},
			})
		}
		if len(buttons) > 0 {
			bubble["footer"] = map[string]any{
				"type":     "box",
				"layout":   "vertical",
				"spacing":  "sm",
				"contents": buttons,
			}
		}
	}

	return map[string]any{
		"type":     "flex",
		"altText":  n.Title,
		"contents": bubble,
	}
}

// kindColor 各告警类型的主题色
func kindColor(kind models.AlertKind) string {
	switch kind {
	case models.AlertZone2SOS, models.AlertFallSOS:
		return "#EF4444"
	case models.AlertHeartCritical, models.AlertTempCritical:
		return "#F97316"
	case models.AlertNearZone2:
		return "#F59E0B"
	case models.AlertZone1:
		return "#EAB308"
	case models.AlertBackSafe, models.AlertBackToZone1, models.AlertBackToNearZone2,
		models.AlertHeartRecovery, models.AlertTempRecovery:
		return "#10B981"
	default:
		return "#3B82F6"
	}
}
