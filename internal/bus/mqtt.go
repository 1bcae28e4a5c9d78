package bus

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/MrSnakeDoc/beacon/internal/logger"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	BrokerURL      string        // ex: "tcp://localhost:1883"
	ClientID       string        // ex: "beacon-proxy"
	Topics         []string      // subscription filters, ex: ["#"]
	ConnectTimeout time.Duration // wait for the initial connect attempt
	RetryInterval  time.Duration // wait between background reconnect attempts
}

// MQTTConn is the paho-backed bus connection. Connection loss is never
// fatal: paho reconnects in the background and resubscribes on connect,
// while IsConnected reports the link state to the poller and the publish
// endpoint.
type MQTTConn struct {
	client    mqtt.Client
	logger    logger.Logger
	topics    []string
	onMessage MessageHandler
}

// NewMQTT creates and starts the broker connection. A broker that is down
// at startup is not an error; the connection keeps retrying in the
// background and the proxy runs degraded until the link comes up.
func NewMQTT(opts MQTTOptions, onMessage MessageHandler, log logger.Logger) *MQTTConn {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 2 * time.Second
	}
	if len(opts.Topics) == 0 {
		opts.Topics = []string{"#"}
	}

	conn := &MQTTConn{
		logger:    log,
		topics:    opts.Topics,
		onMessage: onMessage,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(opts.RetryInterval).
		SetMaxReconnectInterval(30 * time.Second).
		SetConnectTimeout(opts.ConnectTimeout).
		SetOrderMatters(false).
		SetOnConnectHandler(conn.handleConnect).
		SetConnectionLostHandler(conn.handleConnectionLost)

	conn.client = mqtt.NewClient(clientOpts)

	log.Info("connecting to mqtt broker",
		logger.String("broker", opts.BrokerURL),
		logger.String("client_id", opts.ClientID))

	// With connect-retry enabled the token resolves in the background;
	// waiting here would stall startup while the broker is down.
	conn.client.Connect()

	return conn
}

// handleConnect runs on every (re)connect. Subscriptions do not survive a
// reconnect with a clean session, so they are re-established here.
func (c *MQTTConn) handleConnect(client mqtt.Client) {
	c.logger.Info("mqtt broker connected")

	for _, topic := range c.topics {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if c.onMessage != nil {
				c.onMessage(msg.Topic(), msg.Payload())
			}
		})
		go func(topic string, token mqtt.Token) {
			token.Wait()
			if err := token.Error(); err != nil {
				c.logger.Error("mqtt subscribe failed",
					logger.String("topic", topic),
					logger.Error(err))
				return
			}
			c.logger.Info("mqtt subscribed", logger.String("topic", topic))
		}(topic, token)
	}
}

func (c *MQTTConn) handleConnectionLost(_ mqtt.Client, err error) {
	c.logger.Warn("mqtt broker connection lost", logger.Error(err))
}

// IsConnected reports the live broker link state.
func (c *MQTTConn) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Publish forwards one message to the bus, failing fast while disconnected.
func (c *MQTTConn) Publish(topic string, payload []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return ErrNotConnected
	}
	return token.Error()
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (c *MQTTConn) Close() {
	c.client.Disconnect(250)
}
