package colour

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidColour is returned for colour values that cannot be put on the wire.
var ErrInvalidColour = errors.New("invalid colour")

// length of the on-wire colour string, HHHHSSSSVVVV
const WireLength = 12

type RGB struct {
	R, G, B uint8
}

type HSV struct {
	// degrees, [0,360)
	H float64
	// percentages, [0,100]
	S float64
	V float64
}

// RGBToHSV converts using the max/min channel hue computation.
func RGBToHSV(c RGB) HSV {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	df := mx - mn

	var h float64
	switch {
	case mx == mn:
		h = 0
	case mx == r:
		h = math.Mod(60*((g-b)/df)+360, 360)
	case mx == g:
		h = math.Mod(60*((b-r)/df)+120, 360)
	default:
		h = math.Mod(60*((r-g)/df)+240, 360)
	}

	var s float64
	if mx != 0 {
		s = (df / mx) * 100
	}

	return HSV{H: h, S: s, V: mx * 100}
}

// Normalize returns the integer triple used to build the on-wire colour string.
// Saturation and value are scaled to 0-1000 and value never drops below 10,
// a zero brightness colour switches some bulbs off.
func (c HSV) Normalize() (h, s, v int) {
	h = int(math.RoundToEven(c.H)) % 360
	s = int(math.RoundToEven(c.S)) * 10
	v = max(1, int(math.RoundToEven(c.V))) * 10
	return h, s, v
}

// Vivid pushes saturation and value up for bulbs that render pale colours poorly.
func Vivid(c HSV) HSV {
	return HSV{
		H: c.H,
		S: float64(int(75 + c.S/4)),
		V: float64(int(50 + c.V/2)),
	}
}

type kind int

const (
	kindRGB kind = iota + 1
	kindHSV
	kindRawHex
)

// Colour is one of an RGB value, an HSV value or a raw wire string.
type Colour struct {
	kind kind
	rgb  RGB
	hsv  HSV
	raw  string
}

func FromRGB(c RGB) Colour { return Colour{kind: kindRGB, rgb: c} }

func FromHSV(c HSV) Colour { return Colour{kind: kindHSV, hsv: c} }

// FromHex wraps a raw HHHHSSSSVVVV string, it is validated by WireString.
func FromHex(s string) Colour { return Colour{kind: kindRawHex, raw: s} }

// HSV returns the colour in HSV space, raw strings are decoded from the wire format.
func (c Colour) HSV() (HSV, error) {
	switch c.kind {
	case kindRGB:
		return RGBToHSV(c.rgb), nil
	case kindHSV:
		return c.hsv, nil
	case kindRawHex:
		if len(c.raw) != WireLength {
			return HSV{}, fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidColour, WireLength, len(c.raw))
		}
		var parts [3]uint64
		for i := range parts {
			n, err := strconv.ParseUint(c.raw[i*4:i*4+4], 16, 16)
			if err != nil {
				return HSV{}, fmt.Errorf("%w: %s", ErrInvalidColour, c.raw)
			}
			parts[i] = n
		}
		return HSV{H: float64(parts[0]), S: float64(parts[1]) / 10, V: float64(parts[2]) / 10}, nil
	}
	return HSV{}, fmt.Errorf("%w: empty colour", ErrInvalidColour)
}

// WireString formats the colour as three 4 digit hex fields (hue, saturation, value).
func (c Colour) WireString() (string, error) {
	switch c.kind {
	case kindRGB:
		return formatHSV(RGBToHSV(c.rgb)), nil
	case kindHSV:
		return formatHSV(c.hsv), nil
	case kindRawHex:
		if len(c.raw) != WireLength {
			return "", fmt.Errorf("%w: expected %d characters (HHHHSSSSVVVV), got %d", ErrInvalidColour, WireLength, len(c.raw))
		}
		return c.raw, nil
	}
	return "", fmt.Errorf("%w: empty colour", ErrInvalidColour)
}

func (c Colour) String() string {
	switch c.kind {
	case kindRGB:
		return fmt.Sprintf("rgb(%d,%d,%d)", c.rgb.R, c.rgb.G, c.rgb.B)
	case kindHSV:
		return fmt.Sprintf("hsv(%.1f,%.1f,%.1f)", c.hsv.H, c.hsv.S, c.hsv.V)
	case kindRawHex:
		return c.raw
	}
	return "none"
}

func formatHSV(c HSV) string {
	h, s, v := c.Normalize()
	return fmt.Sprintf("%04x%04x%04x", h, s, v)
}

// Parse reads "r,g,b", "#rrggbb"/"rrggbb" or a raw 12 character wire string.
func Parse(s string) (Colour, error) {
	s = strings.TrimSpace(s)

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Colour{}, fmt.Errorf("%w: %q", ErrInvalidColour, s)
		}
		var ch [3]uint8
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return Colour{}, fmt.Errorf("%w: %q", ErrInvalidColour, s)
			}
			ch[i] = uint8(n)
		}
		return FromRGB(RGB{ch[0], ch[1], ch[2]}), nil
	}

	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 6:
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Colour{}, fmt.Errorf("%w: %q", ErrInvalidColour, s)
		}
		return FromRGB(RGB{uint8(n >> 16), uint8(n >> 8), uint8(n)}), nil
	case WireLength:
		return FromHex(hex), nil
	}
	return Colour{}, fmt.Errorf("%w: %q", ErrInvalidColour, s)
}
