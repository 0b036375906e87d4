package device

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/wheelibin/lanlight/internal/colour"
	"github.com/wheelibin/lanlight/internal/constants"
	"github.com/wheelibin/lanlight/internal/frame"
	"github.com/wheelibin/lanlight/internal/models"
)

// DPS maps device properties to the data point keys understood by the firmware.
// Keys differ between bulb models.
type DPS struct {
	Power      string `mapstructure:"power"`
	Mode       string `mapstructure:"mode"`
	Brightness string `mapstructure:"brightness"`
	Colour     string `mapstructure:"colour"`
	Scene      string `mapstructure:"scene"`
	Countdown  string `mapstructure:"countdown"`
}

var DefaultDPS = DPS{
	Power:      "20",
	Mode:       "21",
	Brightness: "22",
	Colour:     "24",
	Scene:      "25",
	Countdown:  "26",
}

type queryPayload struct {
	DevID string `json:"devId"`
	GwID  string `json:"gwId"`
}

type setPayload struct {
	DevID string         `json:"devId"`
	DPS   map[string]any `json:"dps"`
	T     int64          `json:"t"`
}

// Query reads the current data points of the device.
func (c *Client) Query(ctx context.Context) (models.Result, error) {
	payload, err := c.codec.Compose(frame.CommandGet, queryPayload{DevID: c.identity.ID, GwID: c.identity.ID})
	if err != nil {
		return models.Result{}, err
	}
	return c.Communicate(ctx, payload), nil
}

// Set writes data points, keyed by firmware DPS key.
func (c *Client) Set(ctx context.Context, dps map[string]any) (models.Result, error) {
	payload, err := c.codec.Compose(frame.CommandSet, setPayload{
		DevID: c.identity.ID,
		DPS:   dps,
		T:     c.now().Unix(),
	})
	if err != nil {
		return models.Result{}, err
	}
	c.logger.Debug("setting data points", "dps", dps)
	return c.Communicate(ctx, payload), nil
}

func (c *Client) On(ctx context.Context) (models.Result, error) {
	return c.Set(ctx, map[string]any{c.dps.Power: true})
}

func (c *Client) Off(ctx context.Context) (models.Result, error) {
	return c.Set(ctx, map[string]any{c.dps.Power: false})
}

// SetBrightness switches the light on at the given percentage, never below 1%.
func (c *Client) SetBrightness(ctx context.Context, percentage float64) (models.Result, error) {
	if math.IsNaN(percentage) || math.IsInf(percentage, 0) {
		return models.Result{}, fmt.Errorf("%w: percentage must be numeric, got %v", ErrInvalidArgument, percentage)
	}
	percentage = math.RoundToEven(percentage*10) / 10
	percentage = max(1, percentage)

	return c.Set(ctx, map[string]any{
		c.dps.Power:      true,
		c.dps.Brightness: int(math.Round(percentage * 10)),
	})
}

// SetMode selects the work mode: white, colour, scene or music.
func (c *Client) SetMode(ctx context.Context, mode string) (models.Result, error) {
	if !lo.Contains(constants.Modes, mode) {
		return models.Result{}, fmt.Errorf("%w: mode must be one of %v, got %q", ErrInvalidArgument, constants.Modes, mode)
	}
	return c.Set(ctx, map[string]any{c.dps.Mode: mode})
}

// SetColour switches to colour mode and applies the colour.
func (c *Client) SetColour(ctx context.Context, clr colour.Colour) (models.Result, error) {
	wire, err := clr.WireString()
	if err != nil {
		return models.Result{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return c.setColour(ctx, wire)
}

func (c *Client) setColour(ctx context.Context, wire string) (models.Result, error) {
	return c.Set(ctx, map[string]any{
		c.dps.Mode:   constants.ModeColour,
		c.dps.Colour: wire,
	})
}

// SetScene switches to scene mode with a raw, firmware specific scene string.
func (c *Client) SetScene(ctx context.Context, scene string) (models.Result, error) {
	if scene == "" {
		return models.Result{}, fmt.Errorf("%w: scene is required", ErrInvalidArgument)
	}
	return c.Set(ctx, map[string]any{
		c.dps.Mode:  constants.ModeScene,
		c.dps.Scene: scene,
	})
}

// TurnOffAfter starts the device countdown timer.
func (c *Client) TurnOffAfter(ctx context.Context, seconds float64) (models.Result, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return models.Result{}, fmt.Errorf("%w: seconds must be numeric, got %v", ErrInvalidArgument, seconds)
	}
	seconds = math.RoundToEven(seconds)
	// NOTE: min then max pins every value to CountdownMax. Kept as shipped
	// until the intended range is confirmed against real firmware.
	seconds = min(constants.CountdownMin, seconds)
	seconds = max(constants.CountdownMax, seconds)

	return c.Set(ctx, map[string]any{c.dps.Countdown: int(seconds)})
}

// State is a typed view of the data points returned by Query.
type State struct {
	On         bool
	Mode       string
	Brightness int
	Colour     string
	Countdown  int
}

func (c *Client) DecodeState(r models.Result) State {
	dps := r.DPS()
	s := State{}
	s.On, _ = dps[c.dps.Power].(bool)
	s.Mode, _ = dps[c.dps.Mode].(string)
	s.Colour, _ = dps[c.dps.Colour].(string)
	if b, ok := dps[c.dps.Brightness].(float64); ok {
		s.Brightness = int(b)
	}
	if cd, ok := dps[c.dps.Countdown].(float64); ok {
		s.Countdown = int(cd)
	}
	return s
}
