package license

import (
	"math"
	"time"
)

// MaturityDays is the statutory minimum age of a learner's licence before
// the holder may apply for a full licence.
const MaturityDays = 30

// Expiry windows offered on the desk.
const (
	ExpiryWindowShort = 30
	ExpiryWindowLong  = 45
)

const day = 24 * time.Hour

// Today returns midnight of now in loc.  Compute it once per classification
// pass and hand the same value to every predicate.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// Classification is the set of time-windowed flags derived for one
// application against one "today".
type Classification struct {
	EligibleForUpgrade bool

	learnerExpiry *time.Time
	today         time.Time
}

// Classify derives the classification of app as of today.
func Classify(app LicenseApplication, today time.Time) Classification {
	c := Classification{
		EligibleForUpgrade: EligibleForUpgrade(app, today),
		today:              today,
	}
	if app.Learner != nil {
		c.learnerExpiry = app.Learner.ExpiryDate
	}
	return c
}

// LearnerExpiringWithin reports whether the learner's licence expires within
// windowDays of the classification's today.
func (c Classification) LearnerExpiringWithin(windowDays int) bool {
	return expiringWithin(c.learnerExpiry, c.today, windowDays)
}

// EligibleForUpgrade reports whether the holder may upgrade the learner's
// licence to a full licence: the learner's licence has not expired and at
// least MaturityDays whole days have elapsed since it was issued.
func EligibleForUpgrade(app LicenseApplication, today time.Time) (eligible bool) {
	defer func() {
		if recover() != nil {
			eligible = false
		}
	}()

	if !app.Learner.HasDates() {
		return false
	}
	issue, expiry := *app.Learner.IssueDate, *app.Learner.ExpiryDate
	if expiry.Before(today) {
		return false
	}
	return floorDays(wallClock(today, today).Sub(wallClock(issue, today))) >= MaturityDays
}

// LearnerExpiringWithin reports whether the learner's licence of app expires
// within windowDays of today.  An already expired licence never matches.
func LearnerExpiringWithin(app LicenseApplication, today time.Time, windowDays int) bool {
	if app.Learner == nil {
		return false
	}
	return expiringWithin(app.Learner.ExpiryDate, today, windowDays)
}

func expiringWithin(expiry *time.Time, today time.Time, windowDays int) (within bool) {
	defer func() {
		if recover() != nil {
			within = false
		}
	}()

	if expiry == nil {
		return false
	}
	days := ceilDays(wallClock(*expiry, today).Sub(wallClock(today, today)))
	return days >= 0 && days <= windowDays
}

// DaysSinceIssue is the whole number of days elapsed since the learner's
// licence was issued, and false when the issue date is unknown.
func DaysSinceIssue(app LicenseApplication, today time.Time) (int, bool) {
	if app.Learner == nil || app.Learner.IssueDate == nil {
		return 0, false
	}
	return floorDays(wallClock(today, today).Sub(wallClock(*app.Learner.IssueDate, today))), true
}

// DaysUntilExpiry counts started days until the learner's licence expires,
// and false when the expiry date is unknown.
func DaysUntilExpiry(app LicenseApplication, today time.Time) (int, bool) {
	if app.Learner == nil || app.Learner.ExpiryDate == nil {
		return 0, false
	}
	return ceilDays(wallClock(*app.Learner.ExpiryDate, today).Sub(wallClock(today, today))), true
}

// wallClock re-reads t's wall clock in ref's location as if it were UTC, so
// day arithmetic is not skewed by daylight-saving transitions.
func wallClock(t, ref time.Time) time.Time {
	t = t.In(ref.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// floorDays truncates toward negative infinity: a partial day has not
// elapsed yet.
func floorDays(d time.Duration) int {
	return int(math.Floor(float64(d) / float64(day)))
}

// ceilDays rounds up: a licence expiring later today or tomorrow is one day
// away.
func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}
