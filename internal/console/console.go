// Package console is a small line-oriented command language over a DS3231, used by the
// ds3231ctl shell and the MQTT command topic.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/smartfeld/drivers/ds3231"
)

// ErrUsage is returned, wrapped, for unknown commands and malformed arguments.
var ErrUsage = errors.New("usage")

const help = `time                          current time, HH:MM:SS
date                          current date, D.M.YYYY
unix                          seconds since the Unix epoch
now                           current time, RFC 3339
get <field>                   second minute hour day dayname date month year
                              status control temp-high temp-low temp
raw <field>                   unclamped time field and its validity
reg <addr>                    read a register
setreg <addr> <value>         write a register
set <y> <mo> <d> <wd> <h> <mi> <s>
                              set date and time, weekday 1-7
sync                          set the clock from the host clock
alarm <A1|A2> <mode> <date> <weekday> <hour> <minute>
                              mode: minute hour-minute date-hour-minute weekday-hour-minute
alarm-seconds <second> <on|off>
                              alarm 1 seconds match
alarm-int <A1|A2> <on|off>    alarm interrupt enable
clear <A1|A2>                 clear the alarm flag
fired <A1|A2>                 report the alarm flag
intcn <on|off>                INT/SQW pin signals alarms when on
help                          this text`

type Console struct {
	dev *ds3231.Device
	// now is the host clock used by sync.
	now func() time.Time
}

func New(dev *ds3231.Device) *Console {
	return &Console{dev: dev, now: time.Now}
}

type command struct {
	args int // exact number of arguments
	run  func(c *Console, args []string) (string, error)
}

var commands = map[string]command{
	"help": {0, func(*Console, []string) (string, error) { return help, nil }},
	"time": {0, func(c *Console, _ []string) (string, error) { return c.dev.TimeString() }},
	"date": {0, func(c *Console, _ []string) (string, error) { return c.dev.DateString() }},
	"unix": {0, func(c *Console, _ []string) (string, error) {
		ts, err := c.dev.UnixTimestamp()
		return strconv.FormatInt(ts, 10), err
	}},
	"now": {0, func(c *Console, _ []string) (string, error) {
		t, err := c.dev.Now()
		if err != nil {
			return "", err
		}
		return t.Format(time.RFC3339), nil
	}},
	"get":           {1, (*Console).get},
	"raw":           {1, (*Console).raw},
	"reg":           {1, (*Console).reg},
	"setreg":        {2, (*Console).setreg},
	"set":           {7, (*Console).set},
	"sync":          {0, (*Console).sync},
	"alarm":         {6, (*Console).alarm},
	"alarm-seconds": {2, (*Console).alarmSeconds},
	"alarm-int":     {2, (*Console).alarmInt},
	"clear":         {1, (*Console).clear},
	"fired":         {1, (*Console).fired},
	"intcn":         {1, (*Console).intcn},
}

// Exec runs one command line and returns its output. Empty lines yield no output.
func (c *Console) Exec(line string) (string, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(words) == 0 {
		return "", nil
	}
	name, args := strings.ToLower(words[0]), words[1:]
	cmd, ok := commands[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown command %q, try help", ErrUsage, name)
	}
	if len(args) != cmd.args {
		return "", fmt.Errorf("%w: %s takes %d arguments, got %d", ErrUsage, name, cmd.args, len(args))
	}
	return cmd.run(c, args)
}

// Run reads commands from r until EOF or ctx is done, writing results and errors to w. Errors
// of single commands do not stop the loop. Lines are read in a separate goroutine, so a
// cancelled ctx ends Run even while r blocks; that goroutine exits with the next line or EOF.
func (c *Console) Run(ctx context.Context, r io.Reader, w io.Writer, prompt string) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		if prompt != "" {
			fmt.Fprint(w, prompt)
		}
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ok {
			return <-scanErr
		}
		out, err := c.Exec(line)
		switch {
		case err != nil:
			fmt.Fprintf(w, "error: %v\n", err)
		case out != "":
			fmt.Fprintln(w, out)
		}
	}
}

func (c *Console) get(args []string) (string, error) {
	var (
		v   int
		b   uint8
		err error
	)
	switch strings.ToLower(args[0]) {
	case "second":
		v, err = c.dev.Second()
	case "minute":
		v, err = c.dev.Minute()
	case "hour":
		v, err = c.dev.Hour()
	case "day":
		v, err = c.dev.Day()
	case "dayname":
		return c.dev.DayName()
	case "date":
		v, err = c.dev.Date()
	case "month":
		v, err = c.dev.Month()
	case "year":
		v, err = c.dev.Year()
	case "status":
		b, err = c.dev.Status()
		return formatByte(b), err
	case "control":
		b, err = c.dev.Control()
		return formatByte(b), err
	case "temp-high":
		b, err = c.dev.TemperatureHigh()
		return formatByte(b), err
	case "temp-low":
		b, err = c.dev.TemperatureLow()
		return formatByte(b), err
	case "temp":
		mc, err := c.dev.Temperature()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%.2f", float64(mc)/1000), nil
	default:
		return "", fmt.Errorf("%w: unknown field %q", ErrUsage, args[0])
	}
	if err != nil {
		return "", err
	}
	return strconv.Itoa(v), nil
}

func (c *Console) raw(args []string) (string, error) {
	f, err := parseField(args[0])
	if err != nil {
		return "", err
	}
	v, valid, err := c.dev.RawField(f)
	if err != nil {
		return "", err
	}
	if !valid {
		return fmt.Sprintf("%d (out of range)", v), nil
	}
	return strconv.Itoa(v), nil
}

func (c *Console) reg(args []string) (string, error) {
	reg, err := parseByte(args[0])
	if err != nil {
		return "", err
	}
	v, err := c.dev.ReadRegister(reg)
	return formatByte(v), err
}

func (c *Console) setreg(args []string) (string, error) {
	reg, err := parseByte(args[0])
	if err != nil {
		return "", err
	}
	v, err := parseByte(args[1])
	if err != nil {
		return "", err
	}
	return "", c.dev.WriteRegister(reg, v)
}

func (c *Console) set(args []string) (string, error) {
	var v [7]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a number", ErrUsage, a)
		}
		v[i] = n
	}
	return "", c.dev.SetDateTime(v[0], v[1], v[2], v[3], v[4], v[5], v[6])
}

func (c *Console) sync([]string) (string, error) {
	t := c.now().UTC()
	if err := c.dev.Set(t); err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}

func (c *Console) alarm(args []string) (string, error) {
	a, err := parseAlarm(args[0])
	if err != nil {
		return "", err
	}
	mode, err := parseAlarmMode(args[1])
	if err != nil {
		return "", err
	}
	var v [4]int
	for i, s := range args[2:] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a number", ErrUsage, s)
		}
		v[i] = n
	}
	return "", c.dev.SetAlarm(a, mode, v[0], v[1], v[2], v[3])
}

func (c *Console) alarmSeconds(args []string) (string, error) {
	s, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrUsage, args[0])
	}
	on, err := parseSwitch(args[1])
	if err != nil {
		return "", err
	}
	return "", c.dev.SetAlarm1Seconds(s, on)
}

func (c *Console) alarmInt(args []string) (string, error) {
	a, err := parseAlarm(args[0])
	if err != nil {
		return "", err
	}
	on, err := parseSwitch(args[1])
	if err != nil {
		return "", err
	}
	return "", c.dev.SetAlarmInterruptEnable(a, on)
}

func (c *Console) clear(args []string) (string, error) {
	a, err := parseAlarm(args[0])
	if err != nil {
		return "", err
	}
	return "", c.dev.ClearAlarmFlag(a)
}

func (c *Console) fired(args []string) (string, error) {
	a, err := parseAlarm(args[0])
	if err != nil {
		return "", err
	}
	f, err := c.dev.AlarmFired(a)
	return strconv.FormatBool(f), err
}

func (c *Console) intcn(args []string) (string, error) {
	on, err := parseSwitch(args[0])
	if err != nil {
		return "", err
	}
	return "", c.dev.ConfigureGlobalInterrupt(on)
}

func formatByte(b uint8) string {
	return fmt.Sprintf("0x%02X", b)
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a byte", ErrUsage, s)
	}
	return uint8(v), nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not on or off", ErrUsage, s)
}

func parseAlarm(s string) (ds3231.Alarm, error) {
	switch strings.ToUpper(s) {
	case "A1", "1":
		return ds3231.Alarm1, nil
	case "A2", "2":
		return ds3231.Alarm2, nil
	}
	return 0, fmt.Errorf("%w: unknown alarm %q", ErrUsage, s)
}

func parseAlarmMode(s string) (ds3231.AlarmMode, error) {
	for _, m := range []ds3231.AlarmMode{
		ds3231.AlarmMinute,
		ds3231.AlarmHourMinute,
		ds3231.AlarmDateHourMinute,
		ds3231.AlarmWeekdayHourMinute,
	} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown alarm mode %q", ErrUsage, s)
}

func parseField(s string) (ds3231.Field, error) {
	for _, f := range []ds3231.Field{
		ds3231.FieldSecond,
		ds3231.FieldMinute,
		ds3231.FieldHour,
		ds3231.FieldDay,
		ds3231.FieldDate,
		ds3231.FieldMonth,
		ds3231.FieldYear,
	} {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field %q", ErrUsage, s)
}
