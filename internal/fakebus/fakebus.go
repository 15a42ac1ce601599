// Package fakebus provides an in-memory DS3231 register file behind the drivers.I2C
// interface, for host-side tests.
package fakebus

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// ErrNack is returned for transactions addressed to anything but the chip.
var ErrNack = errors.New("fakebus: no acknowledge")

const numRegisters = 0x13

var _ drivers.I2C = (*Chip)(nil)

// Tx is one recorded bus transaction.
type Tx struct {
	Addr uint16
	W    []byte
	Rn   int
}

// Chip emulates the DS3231 register pointer: a write sets the pointer from its first byte
// and stores the rest with auto-increment, a read continues from the pointer. The pointer
// wraps after the last register like the real chip.
type Chip struct {
	Addr uint16
	Regs [numRegisters]byte
	Log  []Tx

	// Err, when set, fails every transaction without touching the registers.
	Err error

	mu  sync.Mutex
	ptr uint8
}

func New(addr uint16) *Chip {
	return &Chip{Addr: addr}
}

func (c *Chip) Tx(addr uint16, w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}
	if addr != c.Addr {
		return ErrNack
	}
	c.Log = append(c.Log, Tx{Addr: addr, W: append([]byte(nil), w...), Rn: len(r)})

	if len(w) > 0 {
		c.ptr = w[0] % numRegisters
		for _, b := range w[1:] {
			c.Regs[c.ptr] = b
			c.ptr = (c.ptr + 1) % numRegisters
		}
	}
	for i := range r {
		r[i] = c.Regs[c.ptr]
		c.ptr = (c.ptr + 1) % numRegisters
	}
	return nil
}

// Set stores a register value without recording a transaction.
func (c *Chip) Set(reg, value uint8) {
	c.mu.Lock()
	c.Regs[reg] = value
	c.mu.Unlock()
}

// Get returns a register value without recording a transaction.
func (c *Chip) Get(reg uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Regs[reg]
}

// Transactions returns a copy of the recorded transactions.
func (c *Chip) Transactions() []Tx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Tx(nil), c.Log...)
}

// Reset forgets the recorded transactions.
func (c *Chip) Reset() {
	c.mu.Lock()
	c.Log = nil
	c.mu.Unlock()
}

// SetErr makes every following transaction fail with err, or succeed again with nil.
func (c *Chip) SetErr(err error) {
	c.mu.Lock()
	c.Err = err
	c.mu.Unlock()
}
