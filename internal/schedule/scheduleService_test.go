package schedule_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelibin/lanlight/internal/colour"
	"github.com/wheelibin/lanlight/internal/models"
	"github.com/wheelibin/lanlight/internal/schedule"
)

const timeFormat = "15:04"

func testLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
}

func dayPattern(sunriseMin, sunriseMax, sunsetMin, sunsetMax string) models.DayPattern {
	p := models.DayPattern{
		Name:       "test",
		SunriseMin: sunriseMin,
		SunriseMax: sunriseMax,
		SunsetMin:  sunsetMin,
		SunsetMax:  sunsetMax,
		Pattern: []models.DayPatternStep{
			// h=30 s=100 v=100
			{Time: "sunrise", Colour: "001e03e803e8"},
			// h=60 s=50 v=100
			{Time: "12:00", Colour: "003c01f403e8"},
			// h=0 s=100 v=50
			{Time: "sunset-1h", Colour: "000003e801f4"},
		},
	}
	// h=240 s=100 v=10
	p.Default.Colour = "00f003e80064"
	return p
}

func Test_CalculateSunriseSunset(t *testing.T) {

	// with this lat/lng and base date
	// sunrise will be 05:59 and sunset will be 18:06 (UTC)
	baseDate := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		pattern models.DayPattern
		sunrise string
		sunset  string
	}{
		// sunrise
		{
			name:    "sunrise falls within min/max",
			pattern: dayPattern("05:00", "06:00", "20:00", "21:00"),
			sunrise: "05:59",
		},
		{
			name:    "sunrise falls earlier than min",
			pattern: dayPattern("06:15", "06:30", "20:00", "21:00"),
			sunrise: "06:15",
		},
		{
			name:    "sunrise falls later than max",
			pattern: dayPattern("05:00", "05:30", "20:00", "21:00"),
			sunrise: "05:30",
		},
		{
			name:    "no limits",
			pattern: dayPattern("", "", "", ""),
			sunrise: "05:59",
			sunset:  "18:06",
		},
		// sunset
		{
			name:    "sunset falls within min/max",
			pattern: dayPattern("05:00", "06:00", "18:00", "19:00"),
			sunset:  "18:06",
		},
		{
			name:    "sunset falls earlier than min",
			pattern: dayPattern("05:00", "06:00", "18:30", "19:00"),
			sunset:  "18:30",
		},
		{
			name:    "sunset falls later than max",
			pattern: dayPattern("05:00", "06:00", "17:00", "18:00"),
			sunset:  "18:00",
		},
	}

	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			srv, err := schedule.NewScheduleService(testLogger(), c.pattern, "0,0")
			require.NoError(t, err)

			sunrise, sunset := srv.CalculateSunriseSunset(baseDate)
			if c.sunrise != "" {
				assert.Equal(t, c.sunrise, sunrise.Format(timeFormat))
			}
			if c.sunset != "" {
				assert.Equal(t, c.sunset, sunset.Format(timeFormat))
			}
		})
	}
}

func Test_ScheduleService_ColourAt(t *testing.T) {

	// sunrise is held at 06:00 by the min
	srv, err := schedule.NewScheduleService(testLogger(), dayPattern("06:00", "07:00", "18:00", "20:00"), "0,0")
	require.NoError(t, err)

	tests := []struct {
		name      string
		timestamp time.Time
		expected  colour.HSV
	}{
		{
			name:      "start of day shows the default",
			timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			expected:  colour.HSV{H: 240, S: 100, V: 10},
		},
		{
			name:      "half way to sunrise, hue goes the short way round",
			timestamp: time.Date(2023, 1, 1, 3, 0, 0, 0, time.UTC),
			expected:  colour.HSV{H: 315, S: 100, V: 55},
		},
		{
			name:      "sunrise",
			timestamp: time.Date(2023, 1, 1, 6, 0, 0, 0, time.UTC),
			expected:  colour.HSV{H: 30, S: 100, V: 100},
		},
		{
			name:      "mid morning",
			timestamp: time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC),
			expected:  colour.HSV{H: 45, S: 75, V: 100},
		},
		{
			name:      "midday",
			timestamp: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),
			expected:  colour.HSV{H: 60, S: 50, V: 100},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := srv.ColourAt(test.timestamp)
			require.NoError(t, err)
			assert.InDelta(t, test.expected.H, c.H, 0.0001)
			assert.InDelta(t, test.expected.S, c.S, 0.0001)
			assert.InDelta(t, test.expected.V, c.V, 0.0001)
		})
	}

	t.Run("late evening heads back to the default", func(t *testing.T) {
		c, err := srv.ColourAt(time.Date(2023, 1, 1, 23, 59, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.InDelta(t, 240, c.H, 1)
		assert.InDelta(t, 10, c.V, 1)
	})
}

func Test_ScheduleService_FixedTimes(t *testing.T) {
	p := models.DayPattern{
		Name: "fixed",
		Pattern: []models.DayPatternStep{
			{Time: "08:00", Colour: "255,0,0"},
			{Time: "20:00", Colour: "#0000ff"},
		},
	}
	p.Default.Colour = "0,255,0"

	// no geo location needed without sunrise/sunset steps
	srv, err := schedule.NewScheduleService(testLogger(), p, "")
	require.NoError(t, err)

	c, err := srv.ColourAt(time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, colour.HSV{H: 0, S: 100, V: 100}, c)

	got, err := srv.Colour(context.Background())
	require.NoError(t, err)
	_, err = got.WireString()
	assert.NoError(t, err)
}

func Test_ScheduleService_OutOfOrderSteps(t *testing.T) {

	t.Run("fixed times out of order are rejected up front", func(t *testing.T) {
		p := models.DayPattern{
			Name: "backwards",
			Pattern: []models.DayPatternStep{
				{Time: "20:00", Colour: "255,0,0"},
				{Time: "08:00", Colour: "0,0,255"},
			},
		}
		p.Default.Colour = "0,255,0"

		srv, err := schedule.NewScheduleService(testLogger(), p, "")

		assert.Nil(t, srv)
		assert.ErrorIs(t, err, schedule.ErrStepOrder)
	})

	t.Run("repeated fixed time is rejected", func(t *testing.T) {
		p := models.DayPattern{
			Name: "repeated",
			Pattern: []models.DayPatternStep{
				{Time: "08:00", Colour: "255,0,0"},
				{Time: "08:00", Colour: "0,0,255"},
			},
		}
		p.Default.Colour = "0,255,0"

		_, err := schedule.NewScheduleService(testLogger(), p, "")

		assert.ErrorIs(t, err, schedule.ErrStepOrder)
	})

	t.Run("sunset resolving after a later fixed step fails for that day", func(t *testing.T) {
		// sunset at 0,0 on 2023-01-01 is 18:06
		p := models.DayPattern{
			Name: "sunset first",
			Pattern: []models.DayPatternStep{
				{Time: "sunset", Colour: "255,0,0"},
				{Time: "12:00", Colour: "0,0,255"},
			},
		}
		p.Default.Colour = "0,255,0"

		srv, err := schedule.NewScheduleService(testLogger(), p, "0,0")
		require.NoError(t, err)

		for _, hour := range []int{3, 12, 21} {
			_, err = srv.ColourAt(time.Date(2023, 1, 1, hour, 0, 0, 0, time.UTC))
			assert.ErrorIs(t, err, schedule.ErrStepOrder)
		}
	})
}

func Test_NewScheduleService_Validation(t *testing.T) {

	valid := dayPattern("", "", "", "")

	badColour := dayPattern("", "", "", "")
	badColour.Pattern = append([]models.DayPatternStep{}, badColour.Pattern...)
	badColour.Pattern[1].Colour = "not a colour"

	badTime := dayPattern("", "", "", "")
	badTime.Pattern = append([]models.DayPatternStep{}, badTime.Pattern...)
	badTime.Pattern[1].Time = "25:99"

	badOffset := dayPattern("", "", "", "")
	badOffset.Pattern = append([]models.DayPatternStep{}, badOffset.Pattern...)
	badOffset.Pattern[2].Time = "sunset-soon"

	noDefault := dayPattern("", "", "", "")
	noDefault.Default.Colour = ""

	tests := []struct {
		name        string
		pattern     models.DayPattern
		geoLocation string
	}{
		{name: "sunrise without geo location", pattern: valid, geoLocation: ""},
		{name: "malformed geo location", pattern: valid, geoLocation: "51.5"},
		{name: "invalid step colour", pattern: badColour, geoLocation: "0,0"},
		{name: "invalid step time", pattern: badTime, geoLocation: "0,0"},
		{name: "invalid sunset offset", pattern: badOffset, geoLocation: "0,0"},
		{name: "missing default colour", pattern: noDefault, geoLocation: "0,0"},
		{name: "invalid sunrise limit", pattern: dayPattern("6am", "", "", ""), geoLocation: "0,0"},
		{name: "no steps", pattern: models.DayPattern{Name: "empty"}, geoLocation: "0,0"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := schedule.NewScheduleService(testLogger(), test.pattern, test.geoLocation)
			assert.Error(t, err)
		})
	}
}

func Test_TimeFromPattern(t *testing.T) {
	baseDate := time.Date(2023, 6, 27, 0, 0, 0, 0, time.UTC)
	sunrise := time.Date(2023, 6, 27, 4, 43, 18, 0, time.UTC)
	sunset := time.Date(2023, 6, 27, 21, 43, 18, 0, time.UTC)

	tests := []struct {
		patternTime string
		expected    time.Time
	}{
		{"sunset-1h", time.Date(2023, 6, 27, 20, 43, 18, 0, time.UTC)},
		{"sunrise+30m", time.Date(2023, 6, 27, 5, 13, 18, 0, time.UTC)},
		{"sunrise", sunrise},
		{"19:30", time.Date(2023, 6, 27, 19, 30, 0, 0, time.UTC)},
		{"startofday", time.Date(2023, 6, 27, 0, 0, 0, 0, time.UTC)},
		{"endofday", time.Date(2023, 6, 28, 0, 0, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		t.Run(test.patternTime, func(t *testing.T) {
			got, err := schedule.TimeFromPattern(test.patternTime, sunrise, sunset, baseDate)
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(got), "expected %s, got %s", test.expected, got)
		})
	}
}
