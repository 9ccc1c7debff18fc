package main

import (
	"math"

	"github.com/pkg/errors"
)

// RecordValidator drops rows that cannot belong to a bus in service: no line
// assigned, or coordinates far away from the city. The bounds are a loose sanity
// box against corrupt rows, not a geofence.
type RecordValidator struct {
	UnknownLine  string
	CheckBounds  bool
	ReferenceLat float64
	ReferenceLon float64
	Tolerance    float64
}

func NewRecordValidator(cfg ValidationConfig) *RecordValidator {
	return &RecordValidator{
		UnknownLine:  cfg.UnknownLine,
		CheckBounds:  cfg.CheckBounds,
		ReferenceLat: cfg.ReferenceLat,
		ReferenceLon: cfg.ReferenceLon,
		Tolerance:    cfg.Tolerance,
	}
}

func (v *RecordValidator) IsValid(rec RawRecord) bool {
	return v.check(rec) == nil
}

func (v *RecordValidator) check(rec RawRecord) error {
	if rec.LineName == "" || rec.LineName == v.UnknownLine {
		return errors.Wrapf(ErrValidationRejected, "vehicle %s: no line", rec.ID)
	}
	if !v.CheckBounds {
		return nil
	}
	if math.Abs(rec.Longitude-v.ReferenceLon) > v.Tolerance || math.Abs(rec.Latitude-v.ReferenceLat) > v.Tolerance {
		return errors.Wrapf(ErrValidationRejected, "vehicle %s: position %.5f,%.5f out of bounds", rec.ID, rec.Latitude, rec.Longitude)
	}
	return nil
}

// Filter keeps the valid records, in feed order, and returns the reasons for the rest.
func (v *RecordValidator) Filter(batch []RawRecord) ([]RawRecord, []error) {
	out := make([]RawRecord, 0, len(batch))
	var rejected []error
	for _, rec := range batch {
		if err := v.check(rec); err != nil {
			rejected = append(rejected, err)
			continue
		}
		out = append(out, rec)
	}
	return out, rejected
}
