package starrec

import "time"

// J2000 epoch as a Julian date and the corresponding Julian year length.
const (
	jdJ2000       = 2451545.0
	daysPerYear   = 365.25
	jdUnixEpoch   = 2440587.5
	secondsPerDay = 86400
)

// JulianYear converts a time to a decimal Julian year (epoch convention used
// by star catalogs, e.g. 2016.0 for Gaia DR3).
func JulianYear(t time.Time) float64 {
	jd := float64(t.Unix())/secondsPerDay + jdUnixEpoch
	return 2000.0 + (jd-jdJ2000)/daysPerYear
}

// YearsSinceEpoch returns the fractional Julian years elapsed from the
// catalog reference epoch to t. Negative when t precedes the epoch.
func YearsSinceEpoch(epoch float64, t time.Time) float64 {
	return JulianYear(t) - epoch
}
