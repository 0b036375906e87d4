package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/wheelibin/lanlight/internal/colour"
	"github.com/wheelibin/lanlight/internal/config"
	"github.com/wheelibin/lanlight/internal/device"
	"github.com/wheelibin/lanlight/internal/discovery"
	"github.com/wheelibin/lanlight/internal/logging"
	"github.com/wheelibin/lanlight/internal/models"
)

const usage = `usage: lanlight [flags] <command> [argument]

commands:
  discover                 list devices announcing themselves on the LAN
  query                    print the current state of the device
  on | off                 switch the device on or off
  brightness <percent>     set white brightness, 1-100
  mode <mode>              white, colour, scene or music
  colour <colour>          r,g,b | #rrggbb | raw HHHHSSSSVVVV
  scene <scene>            raw scene string
  countdown <seconds>      switch off after a delay

flags:
`

func main() {
	flags := pflag.NewFlagSet("lanlight", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "config file (default: config.json in /etc/lanlight, ~/.config/lanlight or .)")
	flags.String("id", "", "device id (gwId)")
	flags.String("key", "", "device local key")
	flags.String("ip", "", "device ip address")
	flags.Int("port", 0, "device tcp port")
	flags.Duration("timeout", 0, "connection timeout")
	flags.Int("attempts", 0, "attempts per request on connection reset")
	flags.Bool("discover", false, "find the device ip from its UDP announcements")
	flags.Duration("deadline", 0, "how long to listen for announcements")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-file", "", "log to a rotated file instead of stderr")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, "lanlight")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, flags.Arg(0), flags.Args()[1:]); err != nil {
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, command string, args []string) error {
	if command == "discover" {
		return discover(ctx, logger, cfg)
	}

	client, err := connect(ctx, logger, cfg)
	if err != nil {
		return err
	}

	var result models.Result
	switch command {
	case "query":
		result, err = client.Query(ctx)
		if err == nil && result.Err == nil {
			printState(client.DecodeState(result))
		}
	case "on":
		result, err = client.On(ctx)
	case "off":
		result, err = client.Off(ctx)
	case "brightness":
		var pct float64
		if pct, err = floatArg(command, args); err == nil {
			result, err = client.SetBrightness(ctx, pct)
		}
	case "mode":
		var mode string
		if mode, err = stringArg(command, args); err == nil {
			result, err = client.SetMode(ctx, mode)
		}
	case "colour", "color":
		var s string
		if s, err = stringArg(command, args); err == nil {
			var clr colour.Colour
			if clr, err = colour.Parse(s); err == nil {
				result, err = client.SetColour(ctx, clr)
			}
		}
	case "scene":
		var scene string
		if scene, err = stringArg(command, args); err == nil {
			result, err = client.SetScene(ctx, scene)
		}
	case "countdown":
		var seconds float64
		if seconds, err = floatArg(command, args); err == nil {
			result, err = client.TurnOffAfter(ctx, seconds)
		}
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}

	logger.Debug("Result", "result", result)
	if result.Err != nil {
		return fmt.Errorf("%s failed: %w", command, result.Err)
	}
	if command != "query" {
		fmt.Println(result)
	}
	return nil
}

// connect builds a client from the configured ip, or finds the device first
// when discovery is enabled or no ip is configured.
func connect(ctx context.Context, logger *log.Logger, cfg *config.Config) (*device.Client, error) {
	if !cfg.Discovery.Enabled && cfg.Device.IP != "" {
		return device.NewClient(logger, cfg.Device.Identity(), cfg.ClientOptions()...)
	}
	if cfg.Device.ID == "" {
		return nil, errors.New("either --ip or --id is required")
	}
	return newDiscoverer(logger, cfg).Find(ctx, cfg.Device.ID, cfg.Device.LocalKey)
}

func newDiscoverer(logger *log.Logger, cfg *config.Config) *discovery.Discoverer {
	return discovery.NewDiscoverer(logger,
		discovery.WithPorts(cfg.Discovery.Ports...),
		discovery.WithDeadline(cfg.Discovery.Deadline),
		discovery.WithReceiveTimeout(cfg.Discovery.ReceiveTimeout),
		discovery.WithClientOptions(cfg.ClientOptions()...),
	)
}

func discover(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	found, err := newDiscoverer(logger, cfg).Scan(ctx)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return discovery.ErrNotFound
	}

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := found[id]
		fmt.Printf("%-24s %-15s version=%s productKey=%s encrypt=%t\n", a.GwID, a.IP, a.Version, a.ProductKey, a.Encrypt)
	}
	return nil
}

func printState(s device.State) {
	fmt.Printf("on:         %t\n", s.On)
	fmt.Printf("mode:       %s\n", s.Mode)
	fmt.Printf("brightness: %.1f%%\n", float64(s.Brightness)/10)
	if s.Colour != "" {
		if hsv, err := colour.FromHex(s.Colour).HSV(); err == nil {
			fmt.Printf("colour:     %s (h=%.0f s=%.0f v=%.0f)\n", s.Colour, hsv.H, hsv.S, hsv.V)
		}
	}
	if s.Countdown > 0 {
		fmt.Printf("countdown:  %ds\n", s.Countdown)
	}
}

func stringArg(command string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %s takes exactly one argument", device.ErrInvalidArgument, command)
	}
	return args[0], nil
}

func floatArg(command string, args []string) (float64, error) {
	s, err := stringArg(command, args)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s expects a number, got %q", device.ErrInvalidArgument, command, s)
	}
	return f, nil
}
