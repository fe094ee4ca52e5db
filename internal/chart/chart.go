// Package chart renders canonical records as a PNG timeline
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/mrcode/pumphistory/internal/models"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrNoRecords is returned when there is nothing to draw
var ErrNoRecords = errors.New("no records to chart")

const (
	marginLeft   = 90.0
	marginRight  = 20.0
	marginTop    = 36.0
	marginBottom = 30.0

	backgroundColor = "#1b2636"
	gridColor       = "#334155"
	textColor       = "#e2e8f0"
	suspendColor    = "#9ca3af"
	lowerColor      = "#f97316"
)

// lanes are drawn top to bottom in this order
var lanes = []models.RecordType{
	models.RecordTempBasal,
	models.RecordBolus,
	models.RecordMeal,
	models.RecordExercise,
}

var laneColors = map[models.RecordType]string{
	models.RecordTempBasal: "#4ade80",
	models.RecordBolus:     "#60a5fa",
	models.RecordMeal:      "#facc15",
	models.RecordExercise:  "#c084fc",
}

// Options controls the rendered image
type Options struct {
	Width  int
	Height int
	Title  string
}

// timeline maps instants to x coordinates
type timeline struct {
	from, to    time.Time
	left, right float64
}

func (tl timeline) x(t time.Time) float64 {
	span := tl.to.Sub(tl.from).Seconds()
	return tl.left + (tl.right-tl.left)*t.Sub(tl.from).Seconds()/span
}

// newTimeline spans every record, padded so point records are never on the edge
func newTimeline(records []models.Record, left, right float64) timeline {
	from, to := records[0].StartAt, records[0].EndAt
	for _, r := range records[1:] {
		if r.StartAt.Before(from) {
			from = r.StartAt
		}
		if r.EndAt.After(to) {
			to = r.EndAt
		}
	}
	pad := to.Sub(from) / 20
	if pad < 15*time.Minute {
		pad = 15 * time.Minute
	}
	return timeline{from: from.Add(-pad), to: to.Add(pad), left: left, right: right}
}

// Draw renders the records onto a new image
func Draw(records []models.Record, opts Options) (image.Image, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if opts.Width <= int(marginLeft+marginRight) || opts.Height <= int(marginTop+marginBottom) {
		return nil, fmt.Errorf("chart size %dx%d is too small", opts.Width, opts.Height)
	}

	w, h := float64(opts.Width), float64(opts.Height)
	dc := gg.NewContext(opts.Width, opts.Height)
	setHex(dc, backgroundColor)
	dc.Clear()

	fontErr := loadFont(dc, 12)
	tl := newTimeline(records, marginLeft, w-marginRight)
	laneHeight := (h - marginTop - marginBottom) / float64(len(lanes))

	drawGrid(dc, tl, laneHeight, h, fontErr == nil)
	if fontErr == nil && opts.Title != "" {
		setHex(dc, textColor)
		dc.DrawStringAnchored(opts.Title, w/2, marginTop/2, 0.5, 0.5)
	}

	for _, r := range records {
		lane := laneIndex(r.Type)
		if lane < 0 {
			continue
		}
		top := marginTop + float64(lane)*laneHeight
		drawRecord(dc, tl, r, top+laneHeight*0.2, laneHeight*0.6)
	}
	return dc.Image(), nil
}

// Render returns the records' timeline as PNG bytes
func Render(records []models.Record, opts Options) ([]byte, error) {
	img, err := Draw(records, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding chart: %w", err)
	}
	return buf.Bytes(), nil
}

func laneIndex(t models.RecordType) int {
	for i, l := range lanes {
		if l == t {
			return i
		}
	}
	return -1
}

func drawGrid(dc *gg.Context, tl timeline, laneHeight, h float64, withText bool) {
	setHex(dc, gridColor)
	dc.SetLineWidth(1)
	for i := range len(lanes) + 1 {
		y := marginTop + float64(i)*laneHeight
		dc.DrawLine(tl.left, y, tl.right, y)
		dc.Stroke()
	}

	step := tickStep(tl.to.Sub(tl.from))
	for t := tl.from.Truncate(step).Add(step); t.Before(tl.to); t = t.Add(step) {
		x := tl.x(t)
		setHex(dc, gridColor)
		dc.DrawLine(x, marginTop, x, h-marginBottom)
		dc.Stroke()
		if withText {
			setHex(dc, textColor)
			dc.DrawStringAnchored(t.Format("15:04"), x, h-marginBottom/2, 0.5, 0.5)
		}
	}

	if withText {
		setHex(dc, textColor)
		for i, l := range lanes {
			dc.DrawStringAnchored(string(l), marginLeft-8, marginTop+(float64(i)+0.5)*laneHeight, 1, 0.5)
		}
	}
}

// tickStep picks an hour-aligned tick spacing giving at most about a dozen ticks
func tickStep(span time.Duration) time.Duration {
	for _, step := range []time.Duration{15 * time.Minute, 30 * time.Minute, time.Hour, 2 * time.Hour, 3 * time.Hour, 6 * time.Hour, 12 * time.Hour} {
		if span/step <= 12 {
			return step
		}
	}
	return 24 * time.Hour
}

func drawRecord(dc *gg.Context, tl timeline, r models.Record, top, height float64) {
	setHex(dc, recordColor(r))
	x0, x1 := tl.x(r.StartAt), tl.x(r.EndAt)
	if x1-x0 < 2 {
		// Point records are diamonds
		cx, cy, s := x0, top+height/2, height/3
		dc.NewSubPath()
		dc.MoveTo(cx, cy-s)
		dc.LineTo(cx+s, cy)
		dc.LineTo(cx, cy+s)
		dc.LineTo(cx-s, cy)
		dc.ClosePath()
		dc.Fill()
		return
	}
	dc.DrawRoundedRectangle(x0, top, x1-x0, height, 3)
	dc.Fill()
}

// recordColor colours suspends and basal reductions apart from other temp basals
func recordColor(r models.Record) string {
	if r.Type == models.RecordTempBasal {
		switch {
		case r.Unit == models.UnitPercentOfBasal && r.Amount == 0:
			return suspendColor
		case r.Unit == models.UnitUnitsPerHour && r.Amount < 0:
			return lowerColor
		}
	}
	return laneColors[r.Type]
}

// loadFont helper to load font safely
func loadFont(dc *gg.Context, size float64) error {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face := truetype.NewFace(font, &truetype.Options{Size: size})
	dc.SetFontFace(face)
	return nil
}

func setHex(dc *gg.Context, hex string) {
	r, g, b := parseHexColor(hex)
	dc.SetRGB255(int(r), int(g), int(b))
}

// parseHexColor parses a hex color string to RGB values
func parseHexColor(hex string) (r, g, b byte) {
	if len(hex) == 7 && hex[0] == '#' {
		_, _ = fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	}
	return
}
