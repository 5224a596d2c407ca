package ffmpeg

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bietiekay/nhk-record/internal/detect"
	"github.com/bietiekay/nhk-record/internal/util"
)

// DefaultWidth and DefaultHeight are assumed when probing cannot
// determine the capture geometry.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// VideoFilterChain builds video filter chains.
type VideoFilterChain struct {
	filters []string
}

// NewVideoFilterChain creates a new empty filter chain.
func NewVideoFilterChain() *VideoFilterChain {
	return &VideoFilterChain{}
}

// AddFilter adds a filter to the chain.
func (c *VideoFilterChain) AddFilter(filter string) *VideoFilterChain {
	if filter != "" {
		c.filters = append(c.filters, filter)
	}
	return c
}

// Build builds the filter chain into a single filter string.
// Returns empty string if no filters are present.
func (c *VideoFilterChain) Build() string {
	if len(c.filters) == 0 {
		return ""
	}
	return strings.Join(c.filters, ",")
}

// IsEmpty returns true if no filters are present.
func (c *VideoFilterChain) IsEmpty() bool {
	return len(c.filters) == 0
}

// cropOffset is the horizontal offset compensating a partial-width
// picture: round((cropWidth - targetWidth) / 2).
func cropOffset(cropWidth, targetWidth int) int {
	return int(math.Round(float64(cropWidth-targetWidth) / 2))
}

// scaledWidth is the width the input must be scaled to so the detected
// picture region fills the target: round(targetWidth^2 / cropWidth / 2) * 2.
// The result is forced even to satisfy the encoder.
func scaledWidth(cropWidth, targetWidth int) int {
	tw := float64(targetWidth)
	return int(math.Round(tw*tw/float64(cropWidth)/2)) * 2
}

// BuildCorrectionFilter produces a filter_complex graph that rescales
// and repositions the picture over time according to the given crop
// observations. Returns "" when observations is empty, selecting the
// stream-copy path. Observations must be in ascending time order.
//
// width and height are the probed dimensions of the capture; the
// canvas and final crop always use them, falling back to
// DefaultWidth x DefaultHeight only when a probe could not supply any.
func BuildCorrectionFilter(observations []detect.CropObservation, width, height int) string {
	if len(observations) == 0 {
		return ""
	}

	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	widthExpr := foldExpr(observations, func(o detect.CropObservation) string {
		return strconv.Itoa(scaledWidth(o.Width, width))
	})
	offsetExpr := foldExpr(observations, func(o detect.CropObservation) string {
		return strconv.Itoa(cropOffset(o.Width, width))
	})

	segments := []string{
		fmt.Sprintf("color=c=black:s=%dx%d[base]", width, height),
		fmt.Sprintf("[0:v:0]scale=w='%s':h=%d:eval=frame[scaled]", widthExpr, height),
		fmt.Sprintf("[base][scaled]overlay=x='%s':y=0:shortest=1[comp]", offsetExpr),
		fmt.Sprintf("[comp]crop=%d:%d:0:0[vout]", width, height),
	}
	return strings.Join(segments, ";")
}

// foldExpr folds observations into a nested time-conditional expression.
// The earliest observation supplies the unconditional innermost value;
// each later observation wraps it in if(gte(t,T),value,...), leaving the
// most recent as the outermost condition.
func foldExpr(observations []detect.CropObservation, value func(detect.CropObservation) string) string {
	expr := value(observations[0])
	for _, obs := range observations[1:] {
		expr = fmt.Sprintf("if(gte(t,%s),%s,%s)", util.SecondsArg(obs.Time), value(obs), expr)
	}
	return expr
}
