package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	startOfDay = "startofday"
	endOfDay   = "endofday"
)

// ParseGeoLocation reads a "lat,lng" pair.
func ParseGeoLocation(geoLocation string) (lat float64, lng float64, err error) {
	latLng := strings.Split(geoLocation, ",")
	if len(latLng) != 2 {
		return 0, 0, fmt.Errorf("invalid geo location %q, expected lat,lng", geoLocation)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(latLng[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q: %w", geoLocation, err)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(latLng[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q: %w", geoLocation, err)
	}
	return lat, lng, nil
}

func isAstronomical(patternTime string) bool {
	return strings.Contains(patternTime, "sunrise") || strings.Contains(patternTime, "sunset")
}

func TimeFromPattern(patternTime string, sunrise time.Time, sunset time.Time, baseDate time.Time) (time.Time, error) {

	// sunrise or sunrise offset
	if strings.Contains(patternTime, "sunrise") {
		return timeFromAstronomicalPatternTime(patternTime, "sunrise", sunrise)
	}

	// sunset or sunset offset
	if strings.Contains(patternTime, "sunset") {
		return timeFromAstronomicalPatternTime(patternTime, "sunset", sunset)
	}

	if patternTime == startOfDay {
		return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), 0, 0, 0, 0, baseDate.Location()), nil
	}

	// midnight at the end of the day, exclusive
	if patternTime == endOfDay {
		return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day()+1, 0, 0, 0, 0, baseDate.Location()), nil
	}

	// time e.g 19:30
	return TimeFromConfigTimeString(patternTime, baseDate)
}

// returns a Time object built from the supplied time string (e.g. "06:30") and a base date
func TimeFromConfigTimeString(timeString string, baseDate time.Time) (time.Time, error) {
	hm, err := time.Parse("15:04", strings.TrimSpace(timeString))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM: %w", timeString, err)
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), hm.Hour(), hm.Minute(), 0, 0, baseDate.Location()), nil
}

// returns an adjusted eventTime e.g ("sunset-1h", "sunset", 2023-06-27 21:43:18) -> 2023-06-27 20:43:18
func timeFromAstronomicalPatternTime(patternTime string, event string, eventTime time.Time) (time.Time, error) {
	if patternTime == event {
		return eventTime, nil
	}
	offset, err := time.ParseDuration(strings.TrimPrefix(patternTime, event))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s offset in %q: %w", event, patternTime, err)
	}
	return eventTime.Add(offset), nil
}
