// Package colors implements the color math behind the color-tools and
// image-tools endpoints: hex/rgb parsing, perceived brightness, and k-means
// dominant color extraction.
package colors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Format identifies how an input color string is encoded.
type Format string

const (
	FormatHex Format = "hex"
	FormatRGB Format = "rgb"
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex renders the color as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Brightness is the perceived brightness on [0,1]:
// (0.299*R + 0.587*G + 0.114*B)/255.
func (c RGB) Brightness() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// IsDark reports whether the color reads as dark (brightness below 0.5).
func (c RGB) IsDark() bool {
	return c.Brightness() < 0.5
}

var (
	hexPattern = regexp.MustCompile(`^#?([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	rgbPattern = regexp.MustCompile(`^(?:rgb\()?\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)?$`)
)

// Parse converts a color string in the given format to RGB. Hex accepts
// #RGB and #RRGGBB with an optional hash; rgb accepts "rgb(r,g,b)" and
// bare "r,g,b". Errors are user-presentable.
func Parse(color string, format Format) (RGB, error) {
	color = strings.TrimSpace(color)

	switch format {
	case FormatHex:
		return parseHex(color)
	case FormatRGB:
		return parseRGBString(color)
	default:
		return RGB{}, fmt.Errorf("unknown color format %q", format)
	}
}

func parseHex(color string) (RGB, error) {
	if !hexPattern.MatchString(color) {
		return RGB{}, fmt.Errorf("invalid hex color format, use #RRGGBB or #RGB")
	}

	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}

	r, _ := strconv.ParseUint(hex[0:2], 16, 8)
	g, _ := strconv.ParseUint(hex[2:4], 16, 8)
	b, _ := strconv.ParseUint(hex[4:6], 16, 8)

	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

func parseRGBString(color string) (RGB, error) {
	m := rgbPattern.FindStringSubmatch(color)
	if m == nil {
		return RGB{}, fmt.Errorf("invalid rgb color format, use rgb(r,g,b) or r,g,b")
	}

	var vals [3]uint8
	for i, s := range m[1:] {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("rgb values must be between 0 and 255")
		}
		vals[i] = uint8(v)
	}

	return RGB{R: vals[0], G: vals[1], B: vals[2]}, nil
}
