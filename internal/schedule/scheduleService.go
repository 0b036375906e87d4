package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nathan-osman/go-sunrise"
	"github.com/samber/lo"
	"github.com/wheelibin/lanlight/internal/colour"
	"github.com/wheelibin/lanlight/internal/models"
)

var (
	ErrNoInterval = errors.New("no pattern interval covers the time")
	ErrStepOrder  = errors.New("day pattern steps are out of order")
)

type patternStep struct {
	time         string
	colour       colour.HSV
	transitionAt int
}

// ScheduleService produces the colour a day pattern calls for at any time.
type ScheduleService struct {
	logger  *log.Logger
	pattern models.DayPattern
	steps   []patternStep
	hasGeo  bool
	lat     float64
	lng     float64
}

// NewScheduleService validates the pattern up front so a bad step is reported
// at startup rather than on every tick. geoLocation ("lat,lng") is only
// required when a step is anchored to sunrise or sunset.
func NewScheduleService(logger *log.Logger, pattern models.DayPattern, geoLocation string) (*ScheduleService, error) {
	s := &ScheduleService{logger: logger, pattern: pattern}

	if len(pattern.Pattern) == 0 {
		return nil, fmt.Errorf("day pattern %q has no steps", pattern.Name)
	}

	if geoLocation != "" {
		lat, lng, err := ParseGeoLocation(geoLocation)
		if err != nil {
			return nil, err
		}
		s.lat, s.lng, s.hasGeo = lat, lng, true
	}
	if !s.hasGeo && lo.SomeBy(pattern.Pattern, func(step models.DayPatternStep) bool { return isAstronomical(step.Time) }) {
		return nil, fmt.Errorf("day pattern %q uses sunrise/sunset but no geo location is configured", pattern.Name)
	}

	for _, limit := range []string{pattern.SunriseMin, pattern.SunriseMax, pattern.SunsetMin, pattern.SunsetMax} {
		if limit == "" {
			continue
		}
		if _, err := TimeFromConfigTimeString(limit, time.Now()); err != nil {
			return nil, fmt.Errorf("day pattern %q: %w", pattern.Name, err)
		}
	}

	def, err := parseHSV(pattern.Default.Colour)
	if err != nil {
		return nil, fmt.Errorf("day pattern %q default: %w", pattern.Name, err)
	}

	// midnight -> first step and last step -> midnight show the default colour
	s.steps = append(s.steps, patternStep{time: startOfDay, colour: def})
	for _, step := range pattern.Pattern {
		c, err := parseHSV(step.Colour)
		if err != nil {
			return nil, fmt.Errorf("day pattern %q step %q: %w", pattern.Name, step.Time, err)
		}
		if _, err := TimeFromPattern(step.Time, time.Now(), time.Now(), time.Now()); err != nil {
			return nil, fmt.Errorf("day pattern %q: %w", pattern.Name, err)
		}
		s.steps = append(s.steps, patternStep{time: step.Time, colour: c, transitionAt: step.TransitionAt})
	}
	s.steps = append(s.steps, patternStep{time: endOfDay, colour: def})

	// sunrise/sunset steps move with the date and are checked per day
	fixed := lo.Filter(pattern.Pattern, func(step models.DayPatternStep, _ int) bool { return !isAstronomical(step.Time) })
	reference := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i < len(fixed); i++ {
		prev, _ := TimeFromPattern(fixed[i-1].Time, reference, reference, reference)
		next, _ := TimeFromPattern(fixed[i].Time, reference, reference, reference)
		if !next.After(prev) {
			return nil, fmt.Errorf("day pattern %q: %w: %q is not after %q", pattern.Name, ErrStepOrder, fixed[i].Time, fixed[i-1].Time)
		}
	}

	return s, nil
}

func parseHSV(s string) (colour.HSV, error) {
	if s == "" {
		return colour.HSV{}, fmt.Errorf("%w: colour is required", colour.ErrInvalidColour)
	}
	c, err := colour.Parse(s)
	if err != nil {
		return colour.HSV{}, err
	}
	return c.HSV()
}

// CalculateSunriseSunset returns the local sunrise and sunset for baseDate,
// held within the pattern's min/max times when those are set.
func (s *ScheduleService) CalculateSunriseSunset(baseDate time.Time) (time.Time, time.Time) {
	rise, set := sunrise.SunriseSunset(
		s.lat, s.lng,
		baseDate.Year(), baseDate.Month(), baseDate.Day(),
	)
	rise, set = rise.In(baseDate.Location()), set.In(baseDate.Location())
	s.logger.Debug("Calculated local sunrise and sunset",
		"sunrise", rise.Format("15:04"),
		"sunset", set.Format("15:04"),
	)

	// validated in NewScheduleService
	limit := func(timeString string) (time.Time, bool) {
		if timeString == "" {
			return time.Time{}, false
		}
		t, _ := TimeFromConfigTimeString(timeString, baseDate)
		return t, true
	}

	if sunriseMin, ok := limit(s.pattern.SunriseMin); ok && rise.Before(sunriseMin) {
		rise = sunriseMin
	}
	if sunriseMax, ok := limit(s.pattern.SunriseMax); ok && rise.After(sunriseMax) {
		rise = sunriseMax
	}
	if sunsetMin, ok := limit(s.pattern.SunsetMin); ok && set.Before(sunsetMin) {
		set = sunsetMin
	}
	if sunsetMax, ok := limit(s.pattern.SunsetMax); ok && set.After(sunsetMax) {
		set = sunsetMax
	}
	return rise, set
}

func (s *ScheduleService) GetIntervalForTime(t time.Time) (*Interval, error) {

	var rise, set time.Time
	if s.hasGeo {
		rise, set = s.CalculateSunriseSunset(t)
	}

	times := make([]time.Time, len(s.steps))
	for i, step := range s.steps {
		stepTime, err := TimeFromPattern(step.time, rise, set, t)
		if err != nil {
			return nil, err
		}
		if i > 0 && stepTime.Before(times[i-1]) {
			return nil, fmt.Errorf("%w on %s: %q resolves before %q", ErrStepOrder, t.Format(time.DateOnly), step.time, s.steps[i-1].time)
		}
		times[i] = stepTime
	}

	for i := 0; i < len(s.steps)-1; i++ {
		startStep := s.steps[i]
		endStep := s.steps[i+1]

		if t.Compare(times[i]) > -1 && t.Before(times[i+1]) {
			// we are in this day pattern interval
			return &Interval{
				Start: IntervalStep{Time: times[i], Colour: startStep.colour, TransitionAt: startStep.transitionAt},
				End:   IntervalStep{Time: times[i+1], Colour: endStep.colour},
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoInterval, t.Format(time.RFC3339))
}

// ColourAt returns the target colour for t.
func (s *ScheduleService) ColourAt(t time.Time) (colour.HSV, error) {
	interval, err := s.GetIntervalForTime(t)
	if err != nil {
		return colour.HSV{}, err
	}
	return interval.CalculateTargetColour(t), nil
}

// Colour returns the colour for the current time.
func (s *ScheduleService) Colour(_ context.Context) (colour.Colour, error) {
	hsv, err := s.ColourAt(time.Now())
	if err != nil {
		return colour.Colour{}, err
	}
	return colour.FromHSV(hsv), nil
}
