// Command armd drives a PCA9685-based robotic arm from a Linux host. It
// executes arm commands received on a serial link, read from a program file
// or typed at an interactive console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servoarm/arm"
	"servoarm/config"
	"servoarm/host/serial"
	"servoarm/pca9685"
	"servoarm/protocol"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Serial device for the command link (overrides config)")
	baud       = flag.Int("baud", 0, "Serial baud rate (overrides config)")
	simulate   = flag.Bool("simulate", false, "Drive a simulated PCA9685 instead of hardware")
	program    = flag.String("program", "", "Run the commands in this file and exit")
	console    = flag.Bool("console", false, "Read commands from an interactive console")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	if *simulate {
		cfg.Bus.Kind = config.BusSimulated
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	transport, closeBus, err := openBus(cfg.Bus, cfg.Driver.AddressOffset, log)
	if err != nil {
		return err
	}
	defer closeBus()

	balancer, err := pca9685.ParsePhaseBalancer(cfg.Driver.PhaseBalancer)
	if err != nil {
		return err
	}
	driver := pca9685.New(transport, balancer, pca9685.Options{
		SwappedPhaseRegisters: cfg.Driver.SwappedPhaseRegisters,
	})

	opts, err := cfg.ArmOptions()
	if err != nil {
		return err
	}
	seq := arm.New(driver, cfg.Servo.Evaluator(), append(opts, arm.WithLogger(log))...)

	if err := seq.Setup(ctx, cfg.Driver.AddressOffset, cfg.Driver.Frequency); err != nil {
		return err
	}

	execCfg := protocol.ExecutorConfig{Logger: log}
	if cfg.Arm.GuardEnabled() {
		execCfg.Geometry = &cfg.Arm.Geometry
	}
	exec := protocol.NewExecutor(seq, execCfg)

	switch {
	case *program != "":
		return runProgram(ctx, exec, *program, log)
	case *console:
		return runConsole(ctx, exec, seq)
	default:
		return serve(ctx, exec, &cfg.Serial, log)
	}
}

func runProgram(ctx context.Context, exec *protocol.Executor, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open program: %w", err)
	}
	defer f.Close()

	start := time.Now()
	if err := exec.RunProgram(ctx, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Info("program finished", "file", path, "elapsed", time.Since(start))
	return nil
}

func serve(ctx context.Context, exec *protocol.Executor, cfg *serial.Config, log *slog.Logger) error {
	if cfg.Device == "" {
		return errors.New("no serial device configured (use -device, -program or -console)")
	}

	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}

	link := protocol.NewLink(port, log)
	defer link.Close()

	log.Info("command link open", "device", cfg.Device, "baud", cfg.Baud)
	return exec.Serve(ctx, link)
}
