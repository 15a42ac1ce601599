package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/smartfeld/drivers/ds3231"
	"github.com/smartfeld/drivers/internal/fakebus"
)

func newTestConsole() (*Console, *fakebus.Chip) {
	chip := fakebus.New(ds3231.Address)
	// 2024-03-15 12:34:56, Friday, 25.25 degrees
	regs := []uint8{0x56, 0x34, 0x12, 0x06, 0x15, 0x03, 0x24}
	for i, v := range regs {
		chip.Set(uint8(i), v)
	}
	chip.Set(ds3231.RegControl, 0x1C)
	chip.Set(ds3231.RegStatus, 0x02)
	chip.Set(ds3231.RegTempMSB, 0x19)
	chip.Set(ds3231.RegTempLSB, 0x40)
	return New(ds3231.New(chip)), chip
}

func TestExecReads(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"time", "12:34:56"},
		{"date", "15.3.2024"},
		{"unix", "1710506096"},
		{"now", "2024-03-15T12:34:56Z"},
		{"get hour", "12"},
		{"get YEAR", "2024"},
		{"get day", "6"},
		{"get dayname", "Friday"},
		{"get status", "0x02"},
		{"get control", "0x1C"},
		{"get temp-high", "0x19"},
		{"get temp-low", "0x40"},
		{"get temp", "25.25"},
		{"raw month", "3"},
		{"reg 0x0e", "0x1C"},
		{"reg 15", "0x02"},
		{"fired A2", "true"},
		{"fired a1", "false"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		c := qt.New(t)
		con, _ := newTestConsole()
		out, err := con.Exec(tt.line)
		c.Assert(err, qt.IsNil, qt.Commentf("%q", tt.line))
		c.Assert(out, qt.Equals, tt.want, qt.Commentf("%q", tt.line))
	}
}

func TestExecRawOutOfRange(t *testing.T) {
	c := qt.New(t)
	con, chip := newTestConsole()
	chip.Set(ds3231.RegHours, 0x47)

	out, err := con.Exec("raw hour")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "47 (out of range)")

	out, err = con.Exec("get hour")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "23")
}

func TestExecWrites(t *testing.T) {
	c := qt.New(t)
	con, chip := newTestConsole()

	_, err := con.Exec("alarm A1 minute 15 4 13 30")
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Regs[ds3231.RegAlarm1:ds3231.RegAlarm1+3], qt.DeepEquals, []byte{0x30, 0x93, 0x95})

	_, err = con.Exec("alarm 2 weekday-hour-minute 15 4 13 30")
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Regs[ds3231.RegAlarm2:ds3231.RegAlarm2+3], qt.DeepEquals, []byte{0x30, 0x13, 0x44})

	_, err = con.Exec("alarm-seconds 10 off")
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Get(ds3231.RegAlarm1Seconds), qt.Equals, uint8(0x90))

	_, err = con.Exec("alarm-int A1 on")
	c.Assert(err, qt.IsNil)
	_, err = con.Exec("alarm-int A2 on")
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Get(ds3231.RegControl), qt.Equals, uint8(0x1F))

	_, err = con.Exec("intcn off")
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Get(ds3231.RegControl), qt.Equals, uint8(0x1B))

	_, err = con.Exec("clear A2")
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Get(ds3231.RegStatus), qt.Equals, uint8(0x00))

	_, err = con.Exec("set 2030 12 31 3 23 59 58")
	c.Assert(err, qt.IsNil)
	out, err := con.Exec("now")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "2030-12-31T23:59:58Z")

	_, err = con.Exec("setreg 0x10 0xF0")
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Get(ds3231.RegAgingOffset), qt.Equals, uint8(0xF0))
}

func TestExecSync(t *testing.T) {
	c := qt.New(t)
	con, chip := newTestConsole()
	chip.Set(ds3231.RegStatus, ds3231.StatusOSF)
	con.now = func() time.Time {
		return time.Date(2025, time.July, 4, 8, 9, 10, 0, time.UTC)
	}

	out, err := con.Exec("sync")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "2025-07-04T08:09:10Z")

	out, err = con.Exec("get dayname")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Friday")
	c.Assert(chip.Get(ds3231.RegStatus), qt.Equals, uint8(0))
}

func TestExecErrors(t *testing.T) {
	tests := []struct {
		line    string
		wantErr error
	}{
		{"bogus", ErrUsage},
		{"time now", ErrUsage},
		{"get", ErrUsage},
		{"get weekday", ErrUsage},
		{"raw status", ErrUsage},
		{"reg 0x100", ErrUsage},
		{"alarm A3 minute 1 1 0 0", ErrUsage},
		{"alarm A1 hourly 1 1 0 0", ErrUsage},
		{"alarm A1 minute x 1 0 0", ErrUsage},
		{"alarm-int A1 maybe", ErrUsage},
		{`set "2024`, ErrUsage},
		{"set 2024 2 30 1 24 0 0", ds3231.ErrInvalidArgument},
		{"alarm A1 minute 32 1 0 0", ds3231.ErrInvalidArgument},
		{"alarm-seconds 60 on", ds3231.ErrInvalidArgument},
	}
	for _, tt := range tests {
		c := qt.New(t)
		con, _ := newTestConsole()
		_, err := con.Exec(tt.line)
		c.Assert(err, qt.ErrorIs, tt.wantErr, qt.Commentf("%q", tt.line))
	}
}

func TestRun(t *testing.T) {
	c := qt.New(t)
	con, _ := newTestConsole()

	in := strings.NewReader("time\nbogus\n\nget year\n")
	var out strings.Builder
	err := con.Run(context.Background(), in, &out, "")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "12:34:56\nerror: usage: unknown command \"bogus\", try help\n2024\n")
}

func TestRunCancelled(t *testing.T) {
	c := qt.New(t)
	con, _ := newTestConsole()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := con.Run(ctx, strings.NewReader("time\n"), &out, "> ")
	c.Assert(err, qt.Equals, context.Canceled)
	c.Assert(out.String(), qt.Equals, "> ")
}

func TestRunCancelledWhileWaiting(t *testing.T) {
	c := qt.New(t)
	con, _ := newTestConsole()
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- con.Run(ctx, pr, io.Discard, "> ") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		c.Assert(err, qt.Equals, context.Canceled)
	case <-time.After(time.Second):
		c.Fatal("Run kept waiting for input after cancel")
	}
}

func TestRunScanError(t *testing.T) {
	c := qt.New(t)
	con, _ := newTestConsole()
	pr, pw := io.Pipe()
	errRead := errors.New("tty gone")
	go func() {
		pw.Write([]byte("time\n"))
		pw.CloseWithError(errRead)
	}()

	var out strings.Builder
	err := con.Run(context.Background(), pr, &out, "")
	c.Assert(err, qt.Equals, errRead)
	c.Assert(out.String(), qt.Equals, "12:34:56\n")
}
