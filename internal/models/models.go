package models

import "fmt"

// Result is the outcome of one exchange with a device.
//
// An exchange either yields decoded data, an acknowledgement, a device return
// code error or a transport error, there is no partial success.
type Result struct {
	Success bool

	// return code reported by the device, 0 when absent
	ReturnCode uint32

	// decoded JSON body, or request diagnostics after a timeout
	Data map[string]any

	// set instead of Data for bare acknowledgements, e.g. "ReturnCode: 0"
	Message string

	// one of the frame/device error kinds, match with errors.Is / errors.As
	Err error
}

// DPS returns the data point map of a status response.
func (r Result) DPS() map[string]any {
	dps, _ := r.Data["dps"].(map[string]any)
	return dps
}

func (r Result) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("success=%t error=%q", r.Success, r.Err)
	case r.Data != nil:
		return fmt.Sprintf("success=%t data=%v", r.Success, r.Data)
	default:
		return fmt.Sprintf("success=%t %s", r.Success, r.Message)
	}
}

type DayPatternStep struct {
	// "HH:MM", "sunrise", "sunset", or an offset such as "sunset-1h30m"
	Time string `json:"time"`
	// anything colour.Parse accepts
	Colour       string `json:"colour"`
	TransitionAt int    `json:"transitionAt"`
}

// DayPattern describes the colours of a day. Before the first step and after
// the last one the light shows Default.
type DayPattern struct {
	Name       string `json:"name"`
	SunriseMin string `json:"sunriseMin"`
	SunriseMax string `json:"sunriseMax"`
	SunsetMin  string `json:"sunsetMin"`
	SunsetMax  string `json:"sunsetMax"`

	Default struct {
		Colour string `json:"colour"`
	} `json:"default"`
	Pattern []DayPatternStep `json:"pattern"`
}
