package chart

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/mrcode/pumphistory/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2015, 10, 15, hour, minute, 0, 0, time.UTC)
}

func sampleRecords() []models.Record {
	return []models.Record{
		{Type: models.RecordTempBasal, StartAt: at(9, 0), EndAt: at(12, 0), Amount: 0.5, Unit: models.UnitUnitsPerHour},
		{Type: models.RecordBolus, StartAt: at(10, 0), EndAt: at(11, 0), Amount: 1.2, Unit: models.UnitUnitsPerHour},
		{Type: models.RecordMeal, StartAt: at(10, 15), EndAt: at(10, 15), Amount: 40, Unit: models.UnitGrams},
	}
}

func TestRender(t *testing.T) {
	data, err := Render(sampleRecords(), Options{Width: 800, Height: 400, Title: "history"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 400 {
		t.Errorf("bounds = %v, want 800x400", b)
	}
}

func TestDraw_BolusBar(t *testing.T) {
	img, err := Draw(sampleRecords(), Options{Width: 800, Height: 400})
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	// Lanes are 83.5px tall; the bolus lane is the second one.
	// The timeline runs 08:45-12:15 across 690px starting at x=90.
	r, g, b, _ := img.At(435, 161).RGBA()
	wr, wg, wb := parseHexColor(laneColors[models.RecordBolus])
	if byte(r>>8) != wr || byte(g>>8) != wg || byte(b>>8) != wb {
		t.Errorf("pixel in bolus bar = (%d,%d,%d), want (%d,%d,%d)", r>>8, g>>8, b>>8, wr, wg, wb)
	}

	r, g, b, _ = img.At(420, 330).RGBA()
	br, bg, bb := parseHexColor(backgroundColor)
	if byte(r>>8) != br || byte(g>>8) != bg || byte(b>>8) != bb {
		t.Errorf("pixel in empty exercise lane = (%d,%d,%d), want background", r>>8, g>>8, b>>8)
	}
}

func TestDraw_Errors(t *testing.T) {
	if _, err := Draw(nil, Options{Width: 800, Height: 400}); !errors.Is(err, ErrNoRecords) {
		t.Errorf("Draw(nil) error = %v, want ErrNoRecords", err)
	}
	if _, err := Draw(sampleRecords(), Options{Width: 50, Height: 400}); err == nil {
		t.Error("expected error for a chart narrower than its margins")
	}
}

func TestNewTimeline(t *testing.T) {
	tl := newTimeline([]models.Record{{StartAt: at(10, 0), EndAt: at(10, 0)}}, 0, 100)
	if !tl.from.Equal(at(9, 45)) || !tl.to.Equal(at(10, 15)) {
		t.Errorf("single point timeline = %v..%v, want 09:45..10:15", tl.from, tl.to)
	}
	if x := tl.x(at(10, 0)); x != 50 {
		t.Errorf("x(10:00) = %v, want 50", x)
	}
}

func TestTickStep(t *testing.T) {
	tests := []struct {
		span time.Duration
		want time.Duration
	}{
		{2 * time.Hour, 15 * time.Minute},
		{5 * time.Hour, 30 * time.Minute},
		{10 * time.Hour, time.Hour},
		{48 * time.Hour, 6 * time.Hour},
		{30 * 24 * time.Hour, 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := tickStep(tt.span); got != tt.want {
			t.Errorf("tickStep(%v) = %v, want %v", tt.span, got, tt.want)
		}
	}
}

func TestRecordColor(t *testing.T) {
	suspend := models.Record{Type: models.RecordTempBasal, Unit: models.UnitPercentOfBasal}
	if got := recordColor(suspend); got != suspendColor {
		t.Errorf("suspend colour = %s, want %s", got, suspendColor)
	}
	lowered := models.Record{Type: models.RecordTempBasal, Unit: models.UnitUnitsPerHour, Amount: -0.3}
	if got := recordColor(lowered); got != lowerColor {
		t.Errorf("reduced basal colour = %s, want %s", got, lowerColor)
	}
	meal := models.Record{Type: models.RecordMeal, Amount: 20}
	if got := recordColor(meal); got != laneColors[models.RecordMeal] {
		t.Errorf("meal colour = %s", got)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b byte
	}{
		{"#60a5fa", 0x60, 0xa5, 0xfa},
		{"#000000", 0, 0, 0},
		{"60a5fa", 0, 0, 0},
		{"", 0, 0, 0},
	}
	for _, tt := range tests {
		r, g, b := parseHexColor(tt.hex)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("parseHexColor(%q) = %d,%d,%d", tt.hex, r, g, b)
		}
	}
}
