package mqtt

import (
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MessageHandler receives one raw broker message.
type MessageHandler func(topic string, payload []byte)

// Options configures the broker connection.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Client wraps the paho client with resubscribe-on-reconnect handling.
type Client struct {
	client mqtt.Client

	mu   sync.Mutex
	subs map[string]subscription
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// NewClient connects to the broker. Subscriptions registered through
// Subscribe are renewed automatically after a reconnect.
func NewClient(opts Options) (*Client, error) {
	c := &Client{subs: make(map[string]subscription)}

	pahoOpts := mqtt.NewClientOptions()
	pahoOpts.AddBroker(opts.Broker)
	pahoOpts.SetClientID(opts.ClientID)
	if opts.Username != "" {
		pahoOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		pahoOpts.SetPassword(opts.Password)
	}
	pahoOpts.SetAutoReconnect(true)
	pahoOpts.SetCleanSession(true)
	pahoOpts.OnConnect = func(client mqtt.Client) {
		log.Info().Str("broker", opts.Broker).Msg("Connected to MQTT broker")
		c.resubscribe()
	}
	pahoOpts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	c.client = mqtt.NewClient(pahoOpts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return c, nil
}

// Subscribe registers a handler for the topic filter.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	return c.subscribe(topic, qos, handler)
}

func (c *Client) subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(client mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}
	log.Info().Str("topic", topic).Msg("Subscribed to topic")
	return nil
}

func (c *Client) resubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, sub := range c.subs {
		if err := c.subscribe(topic, sub.qos, sub.handler); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Failed to renew subscription")
		}
	}
}

// Publish sends a payload to a topic.
func (c *Client) Publish(topic string, qos byte, payload []byte) error {
	token := c.client.Publish(topic, qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// IsConnected reports the connection state.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
