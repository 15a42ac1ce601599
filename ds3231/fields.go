package ds3231

import (
	"fmt"

	"github.com/smartfeld/drivers/internal/mathx"
)

// Field names one of the time registers. Its value is the register address.
type Field uint8

const (
	FieldSecond Field = RegSeconds
	FieldMinute Field = RegMinutes
	FieldHour   Field = RegHours
	FieldDay    Field = RegDay
	FieldDate   Field = RegDate
	FieldMonth  Field = RegMonth
	FieldYear   Field = RegYear
)

// bounds returns the valid decoded range of the field and the mask applied to the raw
// register before decoding. Year bounds are the two digit offset.
func (f Field) bounds() (lo, hi int, mask uint8, ok bool) {
	switch f {
	case FieldSecond, FieldMinute:
		return 0, 59, 0xFF, true
	case FieldHour:
		return 0, 23, 0xFF, true
	case FieldDay:
		return 1, 7, 0xFF, true
	case FieldDate:
		return 1, 31, 0xFF, true
	case FieldMonth:
		return 1, 12, monthMask, true
	case FieldYear:
		return 0, 99, 0xFF, true
	}
	return 0, 0, 0, false
}

func (f Field) String() string {
	switch f {
	case FieldSecond:
		return "second"
	case FieldMinute:
		return "minute"
	case FieldHour:
		return "hour"
	case FieldDay:
		return "day"
	case FieldDate:
		return "date"
	case FieldMonth:
		return "month"
	case FieldYear:
		return "year"
	}
	return fmt.Sprintf("Field(%d)", uint8(f))
}

// decode converts a raw register value into the field's range. Corrupt or uninitialized
// registers are clamped to the nearest bound, never reported.
func (f Field) decode(raw uint8) int {
	lo, hi, mask, _ := f.bounds()
	return mathx.Clamp(bcdToDec(raw&mask), lo, hi)
}

func (d *Device) field(f Field) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readRegister(uint8(f))
	if err != nil {
		return 0, err
	}
	return f.decode(raw), nil
}

func (d *Device) Second() (int, error) { return d.field(FieldSecond) }
func (d *Device) Minute() (int, error) { return d.field(FieldMinute) }
func (d *Device) Hour() (int, error)   { return d.field(FieldHour) }

// Day returns the day of the week, 1-7.
func (d *Device) Day() (int, error) { return d.field(FieldDay) }

// Date returns the day of the month, 1-31.
func (d *Device) Date() (int, error) { return d.field(FieldDate) }

func (d *Device) Month() (int, error) { return d.field(FieldMonth) }

// Year returns the full year, 2000-2099.
func (d *Device) Year() (int, error) {
	y, err := d.field(FieldYear)
	if err != nil {
		return 0, err
	}
	return y + 2000, nil
}

// RawField returns the decoded but unclamped value of a time register and whether it lies
// in the field's valid range. Years include the 2000 offset.
func (d *Device) RawField(f Field) (value int, valid bool, err error) {
	lo, hi, mask, ok := f.bounds()
	if !ok {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidArgument, f)
	}

	d.mu.Lock()
	raw, err := d.readRegister(uint8(f))
	d.mu.Unlock()
	if err != nil {
		return 0, false, err
	}

	value = bcdToDec(raw & mask)
	valid = mathx.Between(value, lo, hi)
	if f == FieldYear {
		value += 2000
	}
	return value, valid, nil
}

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName returns the English name of the day of the week. The raw register is clamped to
// 1-8, not 1-7; a register value of 8 or more yields the empty string.
func (d *Device) DayName() (string, error) {
	d.mu.Lock()
	raw, err := d.readRegister(RegDay)
	d.mu.Unlock()
	if err != nil {
		return "", err
	}
	i := mathx.Clamp(bcdToDec(raw), 1, 8)
	if i > len(dayNames) {
		return "", nil
	}
	return dayNames[i-1], nil
}

// Status returns the raw status register, see the Status* bits.
func (d *Device) Status() (uint8, error) {
	return d.ReadRegister(RegStatus)
}

// Control returns the raw control register, see the Control* bits.
func (d *Device) Control() (uint8, error) {
	return d.ReadRegister(RegControl)
}

// TemperatureHigh returns the raw upper temperature byte: whole degrees Celsius, two's
// complement.
func (d *Device) TemperatureHigh() (uint8, error) {
	return d.ReadRegister(RegTempMSB)
}

// TemperatureLow returns the raw lower temperature byte: quarter degrees in bits 7..6.
func (d *Device) TemperatureLow() (uint8, error) {
	return d.ReadRegister(RegTempLSB)
}

// Temperature returns the temperature in millicelsius (mC). The chip refreshes it every
// 64 seconds.
func (d *Device) Temperature() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.w[0] = RegTempMSB
	err := d.bus.Tx(d.addr, d.w[:1], d.r[:2])
	if err != nil {
		return 0, err
	}
	return int32(int8(d.r[0]))*1000 + int32(d.r[1]>>6)*250, nil
}
