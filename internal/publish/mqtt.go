// Package publish sends decoded records to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config holds MQTT connection settings
type Config struct {
	Broker      string // e.g. tcp://localhost:1883
	ClientID    string // generated when empty
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
}

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher publishes JSON records under <prefix>/<protocol>/<event>.
type Publisher struct {
	client client
	config Config
	log    *log.Logger
}

// generateClientID creates a random client ID for the MQTT connection
func generateClientID() string {
	return "digimodes_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// New connects to the broker and returns a publisher.
func New(config Config, logger *log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("mqtt")

	if config.ClientID == "" {
		config.ClientID = generateClientID()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected to broker", "broker", config.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("connection lost", "err", err)
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		logger.Info("attempting to reconnect")
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.WaitTimeout(30*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", config.Broker, token.Error())
	}

	return newPublisher(c, config, logger), nil
}

func newPublisher(c client, config Config, logger *log.Logger) *Publisher {
	config.TopicPrefix = strings.TrimRight(config.TopicPrefix, "/")
	return &Publisher{client: c, config: config, log: logger}
}

// Topic returns the topic for a protocol event.
func (p *Publisher) Topic(protocol, event string) string {
	if p.config.TopicPrefix == "" {
		return protocol + "/" + event
	}
	return p.config.TopicPrefix + "/" + protocol + "/" + event
}

// Publish marshals record to JSON and publishes it without waiting for the
// broker. Failures are logged; nothing is retried.
func (p *Publisher) Publish(protocol, event string, record interface{}) {
	if p == nil || !p.client.IsConnected() {
		return
	}

	topic := p.Topic(protocol, event)
	data, err := json.Marshal(record)
	if err != nil {
		p.log.Error("failed to marshal record", "topic", topic, "err", err)
		return
	}

	token := p.client.Publish(topic, p.config.QoS, p.config.Retain, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.log.Error("failed to publish", "topic", topic, "err", token.Error())
		}
	}()
}

// Disconnect gracefully disconnects from the MQTT broker
func (p *Publisher) Disconnect() {
	if p != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
		p.log.Info("disconnected from broker")
	}
}
