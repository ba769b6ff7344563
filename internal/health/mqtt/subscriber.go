// Package mqtt ingests device health reports. Door locks publish battery
// levels to <prefix>/<door_id>/health; the subscriber feeds them into the
// registry so offline doors reject commands.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"smartdoor/internal/door/models"
	"smartdoor/internal/platform/config"
	id "smartdoor/pkg/domain"
)

const connectTimeout = 10 * time.Second

// Registry is the slice of the door registry the subscriber writes to.
type Registry interface {
	ReportHealth(ctx context.Context, doorID id.DoorID, batteryLevel int, now time.Time) (*models.Door, error)
}

// healthReport is the wire payload published by door firmware.
type healthReport struct {
	BatteryLevel *int `json:"battery_level"`
}

// Subscriber consumes health reports from the broker.
type Subscriber struct {
	client      pahomqtt.Client
	topicPrefix string
	registry    Registry
	logger      *slog.Logger
}

// NewSubscriber connects to the broker and subscribes to the health topics.
func NewSubscriber(cfg config.MQTTConfig, registry Registry, logger *slog.Logger) (*Subscriber, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	s := &Subscriber{
		topicPrefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		registry:    registry,
		logger:      logger,
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c pahomqtt.Client) {
			// Subscribe inside the connect handler so the subscription
			// survives broker reconnects.
			topic := s.topicPrefix + "/+/health"
			if token := c.Subscribe(topic, 1, s.handleMessage); token.Wait() && token.Error() != nil {
				logger.Error("mqtt subscribe failed", "topic", topic, "error", token.Error())
			}
		})

	s.client = pahomqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect: timeout after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return s, nil
}

func (s *Subscriber) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	doorID, batteryLevel, err := ParseHealthMessage(s.topicPrefix, msg.Topic(), msg.Payload())
	if err != nil {
		s.logger.Warn("dropping malformed health report",
			"topic", msg.Topic(),
			"error", err,
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.registry.ReportHealth(ctx, doorID, batteryLevel, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to apply health report",
			"door_id", doorID,
			"battery_level", batteryLevel,
			"error", err,
		)
		return
	}
	s.logger.Debug("health report applied",
		"door_id", doorID,
		"battery_level", batteryLevel,
	)
}

// Close disconnects from the broker, allowing in-flight work to drain.
func (s *Subscriber) Close() {
	s.client.Disconnect(250)
}

// ParseHealthMessage extracts the door ID from the topic and the battery level
// from the payload. Unknown doors, malformed IDs, and payloads without a
// battery_level are all rejected.
func ParseHealthMessage(prefix, topic string, payload []byte) (id.DoorID, int, error) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return id.DoorID{}, 0, fmt.Errorf("topic %q outside prefix %q", topic, prefix)
	}
	rawID, ok := strings.CutSuffix(rest, "/health")
	if !ok || strings.Contains(rawID, "/") {
		return id.DoorID{}, 0, fmt.Errorf("unexpected topic shape %q", topic)
	}

	doorID, err := id.ParseDoorID(rawID)
	if err != nil {
		return id.DoorID{}, 0, fmt.Errorf("bad door id in topic: %w", err)
	}

	var report healthReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return id.DoorID{}, 0, fmt.Errorf("decode health report: %w", err)
	}
	if report.BatteryLevel == nil {
		return id.DoorID{}, 0, fmt.Errorf("health report missing battery_level")
	}
	return doorID, *report.BatteryLevel, nil
}
