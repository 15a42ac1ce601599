// Package ds3231 implements a driver for the DS3231 Real-Time Clock (RTC): time and date
// getters and setters, both alarms, the alarm interrupt configuration and the raw
// temperature registers.
//
// Weekdays are the chip's 1-7 ordinal, with 1 meaning Sunday when the clock was set through
// Set. Years are stored as a two digit offset from 2000, so only 2000-2099 can be
// represented. The time is assumed to be kept in UTC.
//
// Every operation holds the device lock for its whole bus sequence, so read-modify-write
// updates of the control and status registers do not interleave when one Device is shared
// between goroutines. Two Device values addressing the same chip are not coordinated.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/DS3231.pdf
package ds3231

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
)

var (
	// ErrInvalidArgument is returned, wrapped, for out of range setter arguments. The bus is
	// not touched when it is returned.
	ErrInvalidArgument = errors.New("ds3231: invalid argument")
	ErrInvalidAlarm    = fmt.Errorf("%w: unknown alarm", ErrInvalidArgument)
)

type Device struct {
	mu   sync.Mutex
	bus  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [5]byte
	r [7]byte
}

type Config struct {
	Address uint16
}

// New creates a new DS3231 driver on the provided I2C bus. The bus must already be
// configured; the chip supports up to 400 kHz.
//
// This function only creates the Device object, it does not touch the device.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:  bus,
		addr: Address,
	}
}

func (d *Device) Configure(c Config) {
	if c.Address == 0 {
		c.Address = Address
	}

	d.mu.Lock()
	d.addr = c.Address
	d.mu.Unlock()
}

// ReadRegister returns the current value of an arbitrary register. Meant for debugging.
func (d *Device) ReadRegister(reg uint8) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(reg)
}

// WriteRegister sets an arbitrary register. Meant for debugging.
func (d *Device) WriteRegister(reg, value uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(reg, value)
}

func (d *Device) readRegister(reg uint8) (uint8, error) {
	d.w[0] = reg
	err := d.bus.Tx(d.addr, d.w[:1], d.r[:1])
	return d.r[0], err
}

func (d *Device) writeRegister(reg, value uint8) error {
	d.w[0] = reg
	d.w[1] = value
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

// updateRegister sets or clears mask in reg, leaving the other bits as they are.
func (d *Device) updateRegister(reg, mask uint8, set bool) error {
	v, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	if set {
		v |= mask
	} else {
		v &^= mask
	}
	return d.writeRegister(reg, v)
}

// decToBcd converts int to BCD
func decToBcd(dec int) uint8 {
	return uint8((dec/10)*16 + dec%10)
}

// bcdToDec converts BCD to int
func bcdToDec(bcd uint8) int {
	return int(bcd>>4)*10 + int(bcd&0x0F)
}
