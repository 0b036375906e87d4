package ambient

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/lanlight/internal/colour"
	"github.com/wheelibin/lanlight/internal/constants"
	"github.com/wheelibin/lanlight/internal/models"
)

type Light interface {
	On(ctx context.Context) (models.Result, error)
	SetColour(ctx context.Context, clr colour.Colour) (models.Result, error)
	SetMode(ctx context.Context, mode string) (models.Result, error)
	SetBrightness(ctx context.Context, percentage float64) (models.Result, error)
}

type ColourSource interface {
	// returns the colour the light should show right now
	Colour(ctx context.Context) (colour.Colour, error)
}

type Observer interface {
	ObserveUpdate(result string)
	ObserveColour(h, s, v float64)
}

type nopObserver struct{}

func (nopObserver) ObserveUpdate(string) {}
func (nopObserver) ObserveColour(float64, float64, float64) {}

type Option func(a *Ambient)

func WithInterval(interval time.Duration) Option {
	return func(a *Ambient) { a.interval = interval }
}

// WithVivid applies colour.Vivid to every colour before it is sent.
func WithVivid(vivid bool) Option {
	return func(a *Ambient) { a.vivid = vivid }
}

// WithRestoreBrightness sets the white brightness applied when the loop stops.
func WithRestoreBrightness(percentage float64) Option {
	return func(a *Ambient) { a.restoreBrightness = percentage }
}

func WithObserver(o Observer) Option {
	return func(a *Ambient) { a.observer = o }
}

// Ambient keeps a light in step with a colour source.
type Ambient struct {
	logger            *log.Logger
	light             Light
	source            ColourSource
	interval          time.Duration
	vivid             bool
	restoreBrightness float64
	observer          Observer

	// wire string of the last colour the light accepted
	last string
}

func NewAmbient(logger *log.Logger, light Light, source ColourSource, opts ...Option) *Ambient {
	a := &Ambient{
		logger:            logger,
		light:             light,
		source:            source,
		interval:          constants.AmbientUpdateInterval,
		restoreBrightness: constants.AmbientRestoreBrightness,
		observer:          nopObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run switches the light on and pushes a new colour every interval until ctx
// is cancelled, then puts the light back to plain white.
func (a *Ambient) Run(ctx context.Context) error {
	a.logger.Debug("Ambient.Run")

	result, err := a.light.On(ctx)
	if err != nil {
		return err
	}
	if result.Err != nil {
		a.logger.Warn("Unable to switch the light on, will keep trying with colour updates", "err", result.Err)
	}

	updateTimer := time.NewTicker(a.interval)
	defer updateTimer.Stop()

	// update straight away
	a.update(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Ambient.Run: stop signal received")
			a.restore(context.WithoutCancel(ctx))
			return nil

		case t := <-updateTimer.C:
			a.logger.Debug("Ambient.Run: updating colour", "t", t)
			a.update(ctx)
		}
	}
}

func (a *Ambient) update(ctx context.Context) {
	clr, err := a.source.Colour(ctx)
	if err != nil {
		a.logger.Error("Unable to get colour", "err", err)
		a.observer.ObserveUpdate("error")
		return
	}

	hsv, err := clr.HSV()
	if err != nil {
		a.logger.Error("Colour source returned an invalid colour", "colour", clr, "err", err)
		a.observer.ObserveUpdate("error")
		return
	}
	if a.vivid {
		hsv = colour.Vivid(hsv)
		clr = colour.FromHSV(hsv)
	}

	wire, err := clr.WireString()
	if err != nil {
		a.logger.Error("Colour source returned an invalid colour", "colour", clr, "err", err)
		a.observer.ObserveUpdate("error")
		return
	}
	if wire == a.last {
		a.observer.ObserveUpdate("unchanged")
		return
	}

	result, err := a.light.SetColour(ctx, clr)
	if err == nil {
		err = result.Err
	}
	if err != nil {
		a.logger.Warn("Unable to set colour", "colour", clr, "err", err)
		a.observer.ObserveUpdate("error")
		return
	}

	a.logger.Debug("Colour updated", "colour", clr, "wire", wire)
	a.last = wire
	a.observer.ObserveUpdate("sent")
	a.observer.ObserveColour(hsv.H, hsv.S, hsv.V)
}

func (a *Ambient) restore(ctx context.Context) {
	a.logger.Info("Restoring white light", "brightness", a.restoreBrightness)
	if result, err := a.light.SetMode(ctx, constants.ModeWhite); err != nil || result.Err != nil {
		a.logger.Error("Unable to restore white mode", "err", err, "resultErr", result.Err)
	}
	if result, err := a.light.SetBrightness(ctx, a.restoreBrightness); err != nil || result.Err != nil {
		a.logger.Error("Unable to restore brightness", "err", err, "resultErr", result.Err)
	}
}
