package kepler

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// J2000 is the Julian date of the reference epoch, 2000-01-01T12:00:00.
	J2000 = 2451545.0
	// DaySeconds is the number of seconds in a Julian day.
	DaySeconds = 86400.0
)

// EpochFromJD returns the epoch (seconds past J2000) of the provided Julian date.
func EpochFromJD(jd float64) float64 {
	return (jd - J2000) * DaySeconds
}

// EpochToJD returns the Julian date of the provided epoch.
func EpochToJD(epoch float64) float64 {
	return J2000 + epoch/DaySeconds
}

// EpochFromTime returns the epoch of the provided time.
// No time scale conversion is performed: the time is used as is.
func EpochFromTime(dt time.Time) float64 {
	return EpochFromJD(julian.TimeToJD(dt))
}

// EpochToTime returns the UTC time of the provided epoch, rounded to the millisecond.
func EpochToTime(epoch float64) time.Time {
	return julian.JDToTime(EpochToJD(epoch)).UTC().Round(time.Millisecond)
}
