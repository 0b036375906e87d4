package schedule

import (
	"math"
	"time"

	"github.com/wheelibin/lanlight/internal/colour"
)

type IntervalStep struct {
	Time   time.Time
	Colour colour.HSV
	// when this step should begin transitioning to the next step (percentage value for now)
	TransitionAt int
}

type Interval struct {
	Start IntervalStep
	End   IntervalStep
}

// CalculateTargetColour interpolates between the start and end colours.
// Hue takes the shorter way round the colour wheel.
func (i Interval) CalculateTargetColour(timestamp time.Time) colour.HSV {

	intervalDuration := i.End.Time.Sub(i.Start.Time)
	if intervalDuration <= 0 {
		return i.Start.Colour
	}
	intervalProgress := timestamp.Sub(i.Start.Time)
	percentProgress := intervalProgress.Seconds() / intervalDuration.Seconds()
	percentProgress = math.Max(0, math.Min(1, percentProgress))

	if percentProgress < (float64(i.Start.TransitionAt) / 100) {
		percentProgress = 0
	}

	hueDiff := i.End.Colour.H - i.Start.Colour.H
	if hueDiff > 180 {
		hueDiff -= 360
	}
	if hueDiff < -180 {
		hueDiff += 360
	}
	hue := math.Mod(i.Start.Colour.H+hueDiff*percentProgress+360, 360)

	return colour.HSV{
		H: hue,
		S: i.Start.Colour.S + (i.End.Colour.S-i.Start.Colour.S)*percentProgress,
		V: i.Start.Colour.V + (i.End.Colour.V-i.Start.Colour.V)*percentProgress,
	}
}
