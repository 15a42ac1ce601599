// Package bridge publishes DS3231 state over MQTT and executes console commands received
// on a command topic.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smartfeld/drivers/ds3231"
	"github.com/smartfeld/drivers/internal/console"
)

// Client is the part of an MQTT client the bridge needs.
type Client interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte)) error
}

// Snapshot is the payload of the state topic.
type Snapshot struct {
	Timestamp      int64  `json:"timestamp"`
	Time           string `json:"time"`
	Date           string `json:"date"`
	Temperature    int32  `json:"temperature_mc"`
	Status         uint8  `json:"status"`
	Control        uint8  `json:"control"`
	Alarm1Fired    bool   `json:"a1_fired"`
	Alarm2Fired    bool   `json:"a2_fired"`
	OscillatorLost bool   `json:"osf"`
}

type Bridge struct {
	dev      *ds3231.Device
	con      *console.Console
	client   Client
	topic    string
	interval time.Duration
	logger   *zap.Logger

	// commands are executed by Run, one at a time.
	cmds chan string
}

func New(dev *ds3231.Device, client Client, topic string, interval time.Duration, logger *zap.Logger) *Bridge {
	return &Bridge{
		dev:      dev,
		con:      console.New(dev),
		client:   client,
		topic:    topic,
		interval: interval,
		logger:   logger,
		cmds:     make(chan string, 8),
	}
}

func (b *Bridge) StateTopic() string   { return b.topic + "/state" }
func (b *Bridge) CommandTopic() string { return b.topic + "/cmd" }
func (b *Bridge) ReplyTopic() string   { return b.topic + "/reply" }

// Snapshot reads the clock. Time and date come from one burst read; the temperature and
// the flags are read after it.
func (b *Bridge) Snapshot() (Snapshot, error) {
	var s Snapshot
	ct, err := b.dev.ReadTime()
	if err != nil {
		return s, err
	}
	s.Timestamp = ct.Unix()
	s.Time = fmt.Sprintf("%02d:%02d:%02d", ct.Hour, ct.Minute, ct.Second)
	s.Date = fmt.Sprintf("%d.%d.%d", ct.Date, ct.Month, ct.Year)
	s.Temperature, err = b.dev.Temperature()
	if err != nil {
		return s, err
	}
	s.Status, err = b.dev.Status()
	if err != nil {
		return s, err
	}
	s.Control, err = b.dev.Control()
	if err != nil {
		return s, err
	}
	s.Alarm1Fired = s.Status&ds3231.StatusA1F != 0
	s.Alarm2Fired = s.Status&ds3231.StatusA2F != 0
	s.OscillatorLost = s.Status&ds3231.StatusOSF != 0
	return s, nil
}

// Run subscribes to the command topic and publishes a snapshot every interval until ctx is
// done. Bus and publish failures are logged and retried on the next tick.
func (b *Bridge) Run(ctx context.Context) error {
	err := b.client.Subscribe(b.CommandTopic(), func(payload []byte) {
		select {
		case b.cmds <- string(payload):
		default:
			b.logger.Warn("Command dropped, queue full", zap.ByteString("command", payload))
		}
	})
	if err != nil {
		return err
	}

	b.logger.Info("Bridge started",
		zap.String("topic", b.topic),
		zap.Duration("interval", b.interval))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.publishState()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Bridge stopped")
			return nil
		case <-ticker.C:
			b.publishState()
		case line := <-b.cmds:
			b.handleCommand(line)
		}
	}
}

func (b *Bridge) publishState() {
	s, err := b.Snapshot()
	if err != nil {
		b.logger.Error("Failed to read clock", zap.Error(err))
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		b.logger.Error("Failed to encode snapshot", zap.Error(err))
		return
	}
	if err := b.client.Publish(b.StateTopic(), payload); err != nil {
		b.logger.Error("Failed to publish state", zap.Error(err))
	}
}

// Reply is the payload of the reply topic.
type Reply struct {
	Command string `json:"command"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (b *Bridge) handleCommand(line string) {
	out, err := b.con.Exec(line)
	r := Reply{Command: line, Output: out}
	if err != nil {
		r.Error = err.Error()
		b.logger.Warn("Command failed", zap.String("command", line), zap.Error(err))
	} else {
		b.logger.Debug("Command executed", zap.String("command", line))
	}
	payload, err := json.Marshal(r)
	if err != nil {
		b.logger.Error("Failed to encode reply", zap.Error(err))
		return
	}
	if err := b.client.Publish(b.ReplyTopic(), payload); err != nil {
		b.logger.Error("Failed to publish reply", zap.Error(err))
	}
}
