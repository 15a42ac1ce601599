package ds3231

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/smartfeld/drivers/internal/fakebus"
)

var errBus = errors.New("bus busy")

func newTestDevice() (*Device, *fakebus.Chip) {
	chip := fakebus.New(Address)
	return New(chip), chip
}

func TestBCDRoundTrip(t *testing.T) {
	c := qt.New(t)
	for d := 0; d <= 99; d++ {
		c.Assert(bcdToDec(decToBcd(d)), qt.Equals, d)
	}
}

func TestBCD(t *testing.T) {
	c := qt.New(t)
	c.Assert(decToBcd(13), qt.Equals, uint8(0x13))
	c.Assert(decToBcd(59), qt.Equals, uint8(0x59))
	c.Assert(bcdToDec(0x30), qt.Equals, 30)
	// no validation: a nibble above 9 decodes past the calendar range
	c.Assert(bcdToDec(0x4F), qt.Equals, 55)
	c.Assert(bcdToDec(0xFF), qt.Equals, 165)
}

func TestRegisterPrimitives(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice()
	chip.Set(RegControl, 0x1C)

	v, err := d.ReadRegister(RegControl)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint8(0x1C))

	err = d.WriteRegister(RegAgingOffset, 0x05)
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Get(RegAgingOffset), qt.Equals, uint8(0x05))

	c.Assert(chip.Transactions(), qt.DeepEquals, []fakebus.Tx{
		{Addr: Address, W: []byte{RegControl}, Rn: 1},
		{Addr: Address, W: []byte{RegAgingOffset, 0x05}, Rn: 0},
	})
}

func TestBusErrorPropagates(t *testing.T) {
	c := qt.New(t)
	d, chip := newTestDevice()
	chip.SetErr(errBus)

	_, err := d.Hour()
	c.Assert(err, qt.Equals, errBus)
	_, err = d.UnixTimestamp()
	c.Assert(err, qt.Equals, errBus)
	_, err = d.TimeString()
	c.Assert(err, qt.Equals, errBus)
	err = d.SetAlarmInterruptEnable(Alarm1, true)
	c.Assert(err, qt.Equals, errBus)
	err = d.SetDateTime(2024, 3, 1, 6, 0, 0, 0)
	c.Assert(err, qt.Equals, errBus)
}

func TestConfigureAddress(t *testing.T) {
	c := qt.New(t)
	d, _ := newTestDevice()

	d.Configure(Config{Address: 0x57})
	_, err := d.Second()
	c.Assert(err, qt.Equals, fakebus.ErrNack)

	d.Configure(Config{})
	_, err = d.Second()
	c.Assert(err, qt.IsNil)
}
