package bridge

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/smartfeld/drivers/internal/config"
)

const tokenTimeout = 5 * time.Second

var errTimeout = errors.New("mqtt: timed out")

// pahoClient adapts a paho client to Client.
type pahoClient struct {
	c   mqtt.Client
	qos byte
}

// Dial connects to the broker in cfg.
func Dial(cfg config.MQTTConfig) (Client, func(), error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(tokenTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	if err := wait(c.Connect()); err != nil {
		return nil, nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, err)
	}
	closer := func() { c.Disconnect(250) }
	return &pahoClient{c: c, qos: cfg.QoS}, closer, nil
}

func (p *pahoClient) Publish(topic string, payload []byte) error {
	return wait(p.c.Publish(topic, p.qos, false, payload))
}

func (p *pahoClient) Subscribe(topic string, handler func(payload []byte)) error {
	return wait(p.c.Subscribe(topic, p.qos, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Payload())
	}))
}

func wait(t mqtt.Token) error {
	if !t.WaitTimeout(tokenTimeout) {
		return errTimeout
	}
	return t.Error()
}
