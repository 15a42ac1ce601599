package ds3231

import (
	"fmt"
	"strconv"
	"time"

	"github.com/smartfeld/drivers/internal/mathx"
)

const (
	secondsPerDay      = 86400
	secondsPerYear     = 365 * secondsPerDay
	secondsPerLeapYear = 366 * secondsPerDay
)

// CivilTime is the calendar time held by the chip.
type CivilTime struct {
	Year    int // 2000-2099
	Month   int // 1-12
	Date    int // 1-31
	Weekday int // 1-7
	Hour    int
	Minute  int
	Second  int
}

// Unix returns the seconds elapsed since 1970-01-01T00:00:00Z, treating t as UTC.
func (t CivilTime) Unix() int64 {
	secs := int64(t.Second) + int64(t.Minute)*60 + int64(t.Hour)*3600 + int64(t.Date-1)*secondsPerDay

	for y := 1970; y < t.Year; y++ {
		if isLeapYear(y) {
			secs += secondsPerLeapYear
		} else {
			secs += secondsPerYear
		}
	}

	days := [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if isLeapYear(t.Year) {
		days[1] = 29
	}
	for m := 1; m < t.Month && m <= len(days); m++ {
		secs += int64(days[m-1]) * secondsPerDay
	}
	return secs
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// ReadTime reads all time registers in one transaction, so the fields are coherent. Each
// field is clamped the same way as the single field accessors.
func (d *Device) ReadTime() (CivilTime, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.w[0] = RegSeconds
	err := d.bus.Tx(d.addr, d.w[:1], d.r[:7])
	if err != nil {
		return CivilTime{}, err
	}
	buf := d.r
	return CivilTime{
		Second:  FieldSecond.decode(buf[RegSeconds]),
		Minute:  FieldMinute.decode(buf[RegMinutes]),
		Hour:    FieldHour.decode(buf[RegHours]),
		Weekday: FieldDay.decode(buf[RegDay]),
		Date:    FieldDate.decode(buf[RegDate]),
		Month:   FieldMonth.decode(buf[RegMonth]),
		Year:    FieldYear.decode(buf[RegYear]) + 2000,
	}, nil
}

// UnixTimestamp returns the chip's time as seconds since the Unix epoch.
func (d *Device) UnixTimestamp() (int64, error) {
	t, err := d.ReadTime()
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// Now returns the chip's time as a UTC time.Time.
func (d *Device) Now() (time.Time, error) {
	ts, err := d.UnixTimestamp()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0).UTC(), nil
}

// TimeString returns the time as HH:MM:SS.
func (d *Device) TimeString() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v [3]int
	for i, f := range [3]Field{FieldHour, FieldMinute, FieldSecond} {
		raw, err := d.readRegister(uint8(f))
		if err != nil {
			return "", err
		}
		v[i] = f.decode(raw)
	}
	buf := [8]byte{
		'0' + byte(v[0]/10), '0' + byte(v[0]%10), ':',
		'0' + byte(v[1]/10), '0' + byte(v[1]%10), ':',
		'0' + byte(v[2]/10), '0' + byte(v[2]%10),
	}
	return string(buf[:]), nil
}

// DateString returns the date as D.M.YYYY, without padding. Date, month and year are all
// BCD-decoded and clamped, so registers 0x15, 0x03, 0x24 read as 15.3.2024.
func (d *Device) DateString() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v [3]int
	for i, f := range [3]Field{FieldDate, FieldMonth, FieldYear} {
		raw, err := d.readRegister(uint8(f))
		if err != nil {
			return "", err
		}
		v[i] = f.decode(raw)
	}
	return strconv.Itoa(v[0]) + "." + strconv.Itoa(v[1]) + "." + strconv.Itoa(v[2]+2000), nil
}

func checkRange(name string, v, lo, hi int) error {
	if !mathx.Between(v, lo, hi) {
		return fmt.Errorf("%w: %s %d not in [%d, %d]", ErrInvalidArgument, name, v, lo, hi)
	}
	return nil
}

// SetDateTime sets the clock. weekday is the chip's 1-7 ordinal and is stored as given.
func (d *Device) SetDateTime(year, month, date, weekday, hour, minute, second int) error {
	for _, c := range [...]struct {
		name      string
		v, lo, hi int
	}{
		{"year", year, 2000, 2099},
		{"month", month, 1, 12},
		{"date", date, 1, 31},
		{"weekday", weekday, 1, 7},
		{"hour", hour, 0, 23},
		{"minute", minute, 0, 59},
		{"second", second, 0, 59},
	} {
		if err := checkRange(c.name, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	buf := [8]byte{
		RegSeconds,
		decToBcd(second),
		decToBcd(minute),
		decToBcd(hour),
		decToBcd(weekday),
		decToBcd(date),
		decToBcd(month),
		decToBcd(year - 2000),
	}
	return d.bus.Tx(d.addr, buf[:], nil)
}

// Set sets the clock to t, converted to UTC, and clears the oscillator stop flag. Sunday is
// stored as weekday 1.
func (d *Device) Set(t time.Time) error {
	t = t.UTC()
	err := d.SetDateTime(t.Year(), int(t.Month()), t.Day(), int(t.Weekday())+1, t.Hour(), t.Minute(), t.Second())
	if err != nil {
		return err
	}
	return d.ClearOscillatorStop()
}

// LostPower reports whether the oscillator stopped since the flag was last cleared, in which
// case the time should not be trusted.
func (d *Device) LostPower() (bool, error) {
	s, err := d.Status()
	if err != nil {
		return false, err
	}
	return s&StatusOSF != 0, nil
}

func (d *Device) ClearOscillatorStop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateRegister(RegStatus, StatusOSF, false)
}
