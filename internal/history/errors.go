// Package history reconciles raw pump history into canonical dosing records
package history

import (
	"errors"

	"github.com/mrcode/pumphistory/internal/models"
)

// Errors returned by the pipeline stages. All of them abort the run.
var (
	ErrMissingTimestamp = models.ErrMissingTimestamp
	ErrInvalidDose      = models.ErrInvalidDose

	ErrUnpairedTempBasal        = errors.New("partial temp basal record; re-run with a larger window")
	ErrMissingTempBasalDuration = errors.New("temp basal without a preceding duration")
	ErrUnbalancedSuspendResume  = errors.New("unbalanced pump suspend and resume")
	ErrInvalidInterval          = errors.New("invalid interval")
	ErrUnknownBasalUnit         = errors.New("unknown temp basal unit")
)
