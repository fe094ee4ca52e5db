package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrProfileNotFound is returned when a profile set has no usable profile
var ErrProfileNotFound = errors.New("profile not found")

// ServerStatus represents the Nightscout server status
type ServerStatus struct {
	Status     string `json:"status"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	ServerTime string `json:"serverTime"`
	APIEnabled bool   `json:"apiEnabled"`
}

// Profile is one named therapy profile from a Nightscout profile document
type Profile struct {
	Timezone string        `json:"timezone"`
	Units    string        `json:"units"`
	DIA      float64       `json:"dia"`
	Basal    BasalSchedule `json:"basal"`
}

// Location loads the profile's timezone, defaulting to UTC
func (p Profile) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading profile timezone: %w", err)
	}
	return loc, nil
}

// ProfileSet is a Nightscout profile document
type ProfileSet struct {
	ID             string             `json:"_id"`
	DefaultProfile string             `json:"defaultProfile"`
	StartDate      string             `json:"startDate"`
	Store          map[string]Profile `json:"store"`
}

// Profile returns the named profile, or the default one when name is empty
func (s ProfileSet) Profile(name string) (Profile, error) {
	if name == "" {
		name = s.DefaultProfile
	}
	p, ok := s.Store[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	if err := p.Basal.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}
	return p, nil
}
