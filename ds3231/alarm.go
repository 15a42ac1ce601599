package ds3231

import "fmt"

// Alarm is the alarm number.
type Alarm uint8

const (
	Alarm1 Alarm = iota + 1
	Alarm2
)

// AlarmMode selects which fields the chip compares against the current time.
type AlarmMode uint8

const (
	AlarmMinute            AlarmMode = iota // once per hour, when the minute matches
	AlarmHourMinute                         // once per day
	AlarmDateHourMinute                     // once per month, on the given date
	AlarmWeekdayHourMinute                  // once per week, on the given weekday
)

func (a Alarm) String() string {
	switch a {
	case Alarm1:
		return "A1"
	case Alarm2:
		return "A2"
	}
	return fmt.Sprintf("Alarm(%d)", uint8(a))
}

func (m AlarmMode) String() string {
	switch m {
	case AlarmMinute:
		return "minute"
	case AlarmHourMinute:
		return "hour-minute"
	case AlarmDateHourMinute:
		return "date-hour-minute"
	case AlarmWeekdayHourMinute:
		return "weekday-hour-minute"
	}
	return fmt.Sprintf("AlarmMode(%d)", uint8(m))
}

// base returns the first register of the alarm's minute/hour/day-date block.
func (a Alarm) base() (uint8, error) {
	switch a {
	case Alarm1:
		return RegAlarm1, nil
	case Alarm2:
		return RegAlarm2, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidAlarm, a)
}

// bit returns the alarm's bit, which is the same in the control (AxIE) and status (AxF)
// registers.
func (a Alarm) bit() (uint8, error) {
	switch a {
	case Alarm1:
		return ControlA1IE, nil
	case Alarm2:
		return ControlA2IE, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidAlarm, a)
}

// SetAlarm writes the alarm's minute, hour and day/date registers. Depending on mode, date or
// weekday is ignored, but both must be in range.
//
// The alarm 1 seconds register is left as it is; see SetAlarm1Seconds. The alarm interrupt
// is not enabled, see SetAlarmInterruptEnable.
func (d *Device) SetAlarm(a Alarm, mode AlarmMode, date, weekday, hour, minute int) error {
	base, err := a.base()
	if err != nil {
		return err
	}
	for _, c := range [...]struct {
		name      string
		v, lo, hi int
	}{
		{"date", date, 1, 31},
		{"weekday", weekday, 1, 7},
		{"hour", hour, 0, 23},
		{"minute", minute, 0, 59},
	} {
		if err := checkRange(c.name, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}

	buf := [4]byte{
		base,
		decToBcd(minute),
		decToBcd(hour),
		decToBcd(date),
	}
	switch mode {
	case AlarmMinute:
		buf[2] |= alarmMaskBit
		buf[3] |= alarmMaskBit
	case AlarmHourMinute:
		buf[3] |= alarmMaskBit
	case AlarmDateHourMinute:
		// all fields compared
	case AlarmWeekdayHourMinute:
		buf[3] = decToBcd(weekday) | alarmDayBit
	default:
		return fmt.Errorf("%w: alarm mode %v", ErrInvalidArgument, mode)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bus.Tx(d.addr, buf[:], nil)
}

// SetAlarm1Seconds writes the alarm 1 seconds register. With match set, alarm 1 only fires
// when the seconds are equal too; otherwise the seconds are ignored.
func (d *Device) SetAlarm1Seconds(second int, match bool) error {
	if err := checkRange("second", second, 0, 59); err != nil {
		return err
	}
	v := decToBcd(second)
	if !match {
		v |= alarmMaskBit
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(RegAlarm1Seconds, v)
}

// SetAlarmInterruptEnable switches the interrupt of one alarm on or off. The other control
// bits are kept.
func (d *Device) SetAlarmInterruptEnable(a Alarm, enable bool) error {
	bit, err := a.bit()
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateRegister(RegControl, bit, enable)
}

// ClearAlarmFlag acknowledges a fired alarm so it can trigger again.
func (d *Device) ClearAlarmFlag(a Alarm) error {
	bit, err := a.bit()
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateRegister(RegStatus, bit, false)
}

// AlarmFired reports whether the alarm's flag is set in the status register.
func (d *Device) AlarmFired(a Alarm) (bool, error) {
	bit, err := a.bit()
	if err != nil {
		return false, err
	}
	s, err := d.Status()
	if err != nil {
		return false, err
	}
	return s&bit != 0, nil
}

// ConfigureGlobalInterrupt sets INTCN. When enabled the INT/SQW pin signals alarms, otherwise
// it outputs a square wave.
func (d *Device) ConfigureGlobalInterrupt(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateRegister(RegControl, ControlINTCN, enable)
}
