package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReservoirEntry is a reservoir level reading
type ReservoirEntry struct {
	Date   time.Time
	Amount float64
	Unit   Unit
}

type reservoirEntryJSON struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`
}

// MarshalJSON writes the date in pump timestamp format
func (r ReservoirEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(reservoirEntryJSON{
		Date:   FormatTimestamp(r.Date),
		Amount: r.Amount,
		Unit:   r.Unit,
	})
}

// UnmarshalJSON reads a reservoir entry; the unit defaults to U
func (r *ReservoirEntry) UnmarshalJSON(data []byte) error {
	var raw reservoirEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing reservoir entry: %w", err)
	}
	date, err := ParseTimestamp(raw.Date)
	if err != nil {
		return fmt.Errorf("parsing reservoir entry date: %w", err)
	}
	if raw.Unit == "" {
		raw.Unit = UnitUnits
	}
	*r = ReservoirEntry{Date: date, Amount: raw.Amount, Unit: raw.Unit}
	return nil
}
