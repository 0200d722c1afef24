// Command modbusmon simulates Modbus temperature transmitters, charts them
// live in the terminal and logs every reading to per-day CSV files.
//
// Usage:
//
//	modbusmon [flags] [monitor]     live test screen
//	modbusmon [flags] log N         print today's log of sensor N (1-4)
//	modbusmon [flags] view          browse today's logs
//	modbusmon [flags] snapshot      render today's logs to a PNG chart
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/luki/modbusmon/internal/chart"
	"github.com/luki/modbusmon/internal/config"
	"github.com/luki/modbusmon/internal/logger"
	"github.com/luki/modbusmon/internal/monitor"
	"github.com/luki/modbusmon/internal/sensor"
	"github.com/luki/modbusmon/internal/store"
	"github.com/luki/modbusmon/internal/viewer"
)

func main() {
	fs := flag.NewFlagSet("modbusmon", flag.ExitOnError)
	fs.Usage = func() { printHelp(fs) }

	cfg, args, err := config.FromFlags(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	level, _ := cfg.Level()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := "monitor"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "monitor":
		log, f, err := logger.NewFile(cfg.DataDir, level)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		err = monitor.Run(ctx, cfg, log)
		if err != nil {
			log.Error().Err(err).Msg("monitor failed")
			fatal(err)
		}
	case "log":
		if err := printLog(cfg, args); err != nil {
			fatal(err)
		}
	case "view":
		if err := viewer.Run(cfg.DataDir, time.Now()); err != nil {
			fatal(err)
		}
	case "snapshot":
		log := logger.NewConsole(level)
		if err := snapshot(cfg, log); err != nil {
			log.Error().Err(err).Msg("snapshot failed")
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printHelp(fs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printHelp(fs)
		os.Exit(2)
	}
}

func printLog(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: modbusmon log N (1-%d)", sensor.MaxSensors)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || !sensor.ValidCount(n) {
		return fmt.Errorf("invalid sensor %q: must be 1-%d", args[0], sensor.MaxSensors)
	}

	ls, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}
	l, err := ls.Read(n - 1)
	if err != nil {
		return err
	}
	fmt.Println(l.Text())
	return nil
}

func snapshot(cfg *config.Config, log zerolog.Logger) error {
	files, err := store.ListFiles(cfg.DataDir, time.Now())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return viewer.ErrNoLogs
	}

	series := make(map[int][]sensor.Reading, len(files))
	for _, idx := range store.SortedIndexes(files) {
		rows, err := store.LoadFile(files[idx])
		if err != nil {
			log.Warn().Err(err).Int("sensor", sensor.Number(idx)).Msg("skipping unreadable log")
			continue
		}
		series[idx] = rows
	}

	r, err := chart.NewImageRenderer()
	if err != nil {
		return err
	}
	frame := chart.BuildFrame(series)
	if err := r.SavePNG(cfg.Chart.Output, frame, cfg.Chart.Width, cfg.Chart.Height); err != nil {
		return err
	}
	log.Info().Str("path", cfg.Chart.Output).Int("points", frame.Points()).Msg("chart saved")
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printHelp(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, `modbusmon - synthetic Modbus temperature test screen

Commands:
  monitor     Live test screen (default)
  log N       Print today's log for sensor N (1-4)
  view        Browse today's logs
  snapshot    Render today's logs to a PNG chart

Flags:`)
	fs.PrintDefaults()
}
