// Package colortools implements the color analysis endpoints.
package colortools

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/colors"
)

// Handlers handles color tool endpoints
type Handlers struct{}

// NewHandlers creates a new colortools Handlers instance
func NewHandlers() *Handlers {
	return &Handlers{}
}

// @Summary      Check color brightness
// @Description  Parse a color and report its perceived brightness and whether it reads as dark.
// @Tags         ColorTools
// @Produce      json
// @Param        color         query  string  true  "Color value (#RRGGBB, #RGB, rgb(r,g,b), or r,g,b)"
// @Param        color_format  query  string  true  "Color format (hex or rgb)"
// @Success      200  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Missing or malformed color"
// @Router       /v1/color-tools/check_brightness [get]
// CheckBrightnessHandler analyzes a color's perceived brightness
// GET /v1/color-tools/check_brightness?color=&color_format=
func (h *Handlers) CheckBrightnessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		input := c.Query("color")
		format := c.Query("color_format")

		if input == "" {
			respond.Error(c, http.StatusBadRequest, "No color provided")
			return
		}
		if format != string(colors.FormatHex) && format != string(colors.FormatRGB) {
			respond.Error(c, http.StatusBadRequest, "Color format must be 'hex' or 'rgb'")
			return
		}

		rgb, err := colors.Parse(input, colors.Format(format))
		if err != nil {
			respond.Error(c, http.StatusBadRequest, capitalize(err.Error()))
			return
		}

		brightness := rgb.Brightness()
		perception := "light"
		if rgb.IsDark() {
			perception = "dark"
		}

		respond.OK(c, http.StatusOK, "Color analyzed", gin.H{
			"input_color": input,
			"format":      format,
			"rgb_values":  []int{int(rgb.R), int(rgb.G), int(rgb.B)},
			"brightness":  math.Round(brightness*1000) / 1000,
			"is_dark":     rgb.IsDark(),
			"perception":  perception,
		})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	upper := s[0]
	if upper >= 'a' && upper <= 'z' {
		upper -= 'a' - 'A'
	}
	return string(upper) + s[1:]
}
