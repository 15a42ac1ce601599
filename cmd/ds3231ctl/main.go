// Command ds3231ctl talks to a DS3231 on a Linux I2C bus.
//
//	ds3231ctl now
//	ds3231ctl alarm A1 minute 15 4 13 30
//	ds3231ctl           (interactive shell)
//	ds3231ctl bridge    (publish state over MQTT)
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"go.uber.org/zap"
	"tinygo.org/x/drivers"

	"github.com/smartfeld/drivers/ds3231"
	"github.com/smartfeld/drivers/internal/bridge"
	"github.com/smartfeld/drivers/internal/config"
	"github.com/smartfeld/drivers/internal/console"
	"github.com/smartfeld/drivers/internal/hostbus"
)

type bus interface {
	drivers.I2C
	io.Closer
}

var openBus = func(name string) (bus, error) {
	b, err := hostbus.Open(name)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// run returns the exit code, so the deferred cleanups run before the process exits.
func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := getopt.New()
	optConfig := opts.StringLong("config", 'c', "", "Configuration file")
	optBus := opts.StringLong("bus", 'b', "", "I2C bus name, overrides the configuration")
	optDebug := opts.BoolLong("debug", 'd', "Log debug to console")
	optList := opts.BoolLong("list", 'l', "List I2C buses and exit")
	optHelp := opts.BoolLong("help", 'h', "Help")
	opts.SetParameters("[command [args...]]")
	if err := opts.Getopt(argv, nil); err != nil {
		fmt.Fprintln(stderr, err)
		opts.PrintUsage(stderr)
		return 2
	}

	if *optHelp {
		opts.PrintUsage(stdout)
		return 0
	}

	var (
		logger *zap.Logger
		err    error
	)
	if *optDebug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*optConfig)
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return 1
	}
	if *optBus != "" {
		cfg.Bus.Name = *optBus
	}

	if *optList {
		names, err := hostbus.Buses()
		if err != nil {
			logger.Error("Failed to list buses", zap.Error(err))
			return 1
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
		return 0
	}

	b, err := openBus(cfg.Bus.Name)
	if err != nil {
		logger.Error("Failed to open bus", zap.String("bus", cfg.Bus.Name), zap.Error(err))
		return 1
	}
	defer b.Close()
	logger.Debug("Bus opened", zap.String("bus", cfg.Bus.Name), zap.Uint16("address", cfg.Bus.Address))

	dev := ds3231.New(b)
	dev.Configure(ds3231.Config{Address: cfg.Bus.Address})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := opts.Args()
	switch {
	case len(args) == 0:
		con := console.New(dev)
		if err := con.Run(ctx, stdin, stdout, "ds3231> "); err != nil && ctx.Err() == nil {
			logger.Error("Shell failed", zap.Error(err))
			return 1
		}
	case args[0] == "bridge":
		return runBridge(ctx, cfg, dev, logger)
	default:
		out, err := console.New(dev).Exec(shellJoin(args))
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		if out != "" {
			fmt.Fprintln(stdout, out)
		}
	}
	return 0
}

func runBridge(ctx context.Context, cfg *config.Config, dev *ds3231.Device, logger *zap.Logger) int {
	client, closeClient, err := bridge.Dial(cfg.MQTT)
	if err != nil {
		logger.Error("Failed to connect to broker", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		return 1
	}
	defer closeClient()
	logger.Info("Connected to broker", zap.String("broker", cfg.MQTT.Broker))

	b := bridge.New(dev, client, cfg.MQTT.Topic, cfg.Poll.Interval, logger)
	if err := b.Run(ctx); err != nil {
		logger.Error("Bridge failed", zap.Error(err))
		return 1
	}
	return 0
}

// shellJoin quotes arguments that contain spaces so the console splits them back the same way.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
