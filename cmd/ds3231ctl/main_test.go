package main

import (
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/smartfeld/drivers/ds3231"
	"github.com/smartfeld/drivers/internal/fakebus"
)

type closingChip struct {
	*fakebus.Chip
	closed bool
}

func (c *closingChip) Close() error {
	c.closed = true
	return nil
}

func useChip(c *qt.C) *closingChip {
	chip := &closingChip{Chip: fakebus.New(ds3231.Address)}
	// 2024-03-15 12:34:56
	for i, v := range []uint8{0x56, 0x34, 0x12, 0x06, 0x15, 0x03, 0x24} {
		chip.Set(uint8(i), v)
	}
	c.Patch(&openBus, func(string) (bus, error) { return chip, nil })
	return chip
}

func TestRunCommand(t *testing.T) {
	c := qt.New(t)
	chip := useChip(c)

	var stdout, stderr strings.Builder
	code := run([]string{"ds3231ctl", "time"}, strings.NewReader(""), &stdout, &stderr)
	c.Assert(code, qt.Equals, 0)
	c.Assert(stdout.String(), qt.Equals, "12:34:56\n")
	c.Assert(chip.closed, qt.IsTrue)
}

func TestRunFailedCommandClosesBus(t *testing.T) {
	c := qt.New(t)
	chip := useChip(c)

	var stdout, stderr strings.Builder
	code := run([]string{"ds3231ctl", "alarm", "A3", "minute", "1", "1", "0", "0"}, strings.NewReader(""), &stdout, &stderr)
	c.Assert(code, qt.Equals, 1)
	c.Assert(stderr.String(), qt.Contains, `error: usage: unknown alarm "A3"`)
	c.Assert(chip.closed, qt.IsTrue)
}

func TestRunShell(t *testing.T) {
	c := qt.New(t)
	chip := useChip(c)

	var stdout, stderr strings.Builder
	code := run([]string{"ds3231ctl"}, strings.NewReader("get year\n"), &stdout, &stderr)
	c.Assert(code, qt.Equals, 0)
	c.Assert(stdout.String(), qt.Equals, "ds3231> 2024\nds3231> ")
	c.Assert(chip.closed, qt.IsTrue)
}

func TestRunOpenBusError(t *testing.T) {
	c := qt.New(t)
	c.Patch(&openBus, func(string) (bus, error) { return nil, errors.New("no such bus") })

	var stdout, stderr strings.Builder
	code := run([]string{"ds3231ctl", "--bus", "9", "time"}, strings.NewReader(""), &stdout, &stderr)
	c.Assert(code, qt.Equals, 1)
	c.Assert(stdout.String(), qt.Equals, "")
}

func TestRunBadFlag(t *testing.T) {
	c := qt.New(t)

	var stdout, stderr strings.Builder
	code := run([]string{"ds3231ctl", "--nope"}, strings.NewReader(""), &stdout, &stderr)
	c.Assert(code, qt.Equals, 2)
	c.Assert(stderr.String(), qt.Contains, "nope")
}

func TestShellJoin(t *testing.T) {
	c := qt.New(t)
	c.Assert(shellJoin([]string{"set", "2024", "3"}), qt.Equals, "set 2024 3")
	c.Assert(shellJoin([]string{"get", "a b", ""}), qt.Equals, "get 'a b' ''")
}
