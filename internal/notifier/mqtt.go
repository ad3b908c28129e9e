package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/config"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// MQTTDispatcher MQTT 通道
// 每个被监护人一个主题，站点看板/本地网关订阅
type MQTTDispatcher struct {
	client mqtt.Client
	qos    byte
	logger *zap.Logger
}

// NewMQTTDispatcher 连接 broker 并创建 MQTT 通道
func NewMQTTDispatcher(cfg *config.MQTTConfig, logger *zap.Logger) (*MQTTDispatcher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTDispatcher{
		client: client,
		qos:    cfg.QoS,
		logger: logger,
	}, nil
}

func (d *MQTTDispatcher) Name() string { return "mqtt" }

// Send 把通知发布到被监护人的告警主题
func (d *MQTTDispatcher) Send(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	topic := fmt.Sprintf("smartwatch/dependent/%d/alert", n.DependentID)
	token := d.client.Publish(topic, d.qos, false, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	d.logger.Info("MQTT notification published",
		zap.String("event_id", n.EventID),
		zap.String("topic", topic),
	)
	return nil
}

// Close 断开 broker 连接
func (d *MQTTDispatcher) Close() {
	d.client.Disconnect(250)
}
