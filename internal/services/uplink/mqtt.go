package uplink

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/syedak1/dispatch-ai/internal/config"
	"github.com/syedak1/dispatch-ai/internal/dto"
	"github.com/syedak1/dispatch-ai/internal/logger"
)

// Publisher pushes alerts onto an MQTT topic for downstream consumers
// (recorders, pagers, CAD bridges). The websocket broadcast stays the
// primary path; this is a secondary best-effort sink.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *logger.Logger
}

func NewPublisher(cfg *config.Config, logger *logger.Logger) (*Publisher, error) {
	broker := fmt.Sprintf("tcp://%s:%d", cfg.MQTTHost, cfg.MQTTPort)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	cli := mqtt.NewClient(opts)
	token := cli.Connect()
	if ok := token.WaitTimeout(10 * time.Second); !ok {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	logger.Info("Alert uplink connected to %s (topic: %s)", broker, cfg.MQTTAlertTopic)
	return &Publisher{client: cli, topic: cfg.MQTTAlertTopic, logger: logger}, nil
}

// PublishAlert sends the alert as JSON at QoS 1.
func (p *Publisher) PublishAlert(alert dto.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
