// Package hostbus opens a Linux I2C bus through periph.io and exposes it as a
// tinygo drivers.I2C, so the chip drivers run unchanged on a single board computer.
package hostbus

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*Bus)(nil)

// Bus wraps a periph.io bus. Transactions are serialised, since several drivers may share it.
type Bus struct {
	mu  sync.Mutex
	bus i2c.BusCloser
}

// Open initialises the host drivers and opens the named bus, e.g. "1" or "/dev/i2c-1". An
// empty name picks the first bus found.
func Open(name string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hostbus: init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("hostbus: open %q: %w", name, err)
	}
	return &Bus{bus: b}, nil
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bus.Tx(addr, w, r)
}

func (b *Bus) String() string {
	return b.bus.String()
}

func (b *Bus) Close() error {
	return b.bus.Close()
}

// Buses lists the I2C buses periph.io knows about on this host.
func Buses() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hostbus: init: %w", err)
	}
	var names []string
	for _, ref := range i2creg.All() {
		names = append(names, ref.Name)
	}
	return names, nil
}
