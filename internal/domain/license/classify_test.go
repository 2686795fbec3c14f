package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func learnerApp(issue, expiry *time.Time) LicenseApplication {
	return LicenseApplication{
		ID:      "app",
		Learner: &LicenseDocument{Number: "LL-1", IssueDate: issue, ExpiryDate: expiry},
	}
}

func TestToday_ZeroesTimeOfDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 6, 30, 20, 0, 0, 0, time.UTC) // 01:30 on 1 July in IST

	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), Today(now, time.UTC))
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, ist), Today(now, ist))
	assert.Equal(t, Today(now, time.UTC), Today(now, nil))
}

func TestEligibleForUpgrade_MaturityBoundary(t *testing.T) {
	today := date(2024, 6, 30)
	expiry := ptr(date(2024, 12, 1))

	assert.False(t, EligibleForUpgrade(learnerApp(ptr(date(2024, 6, 1)), expiry), today), "29 days")
	assert.True(t, EligibleForUpgrade(learnerApp(ptr(date(2024, 5, 31)), expiry), today), "30 days")
	assert.True(t, EligibleForUpgrade(learnerApp(ptr(date(2024, 1, 1)), expiry), today), "181 days")
}

func TestEligibleForUpgrade_ExpiredNeverEligible(t *testing.T) {
	today := date(2024, 6, 30)

	app := learnerApp(ptr(date(2024, 1, 1)), ptr(date(2024, 6, 29)))
	assert.False(t, EligibleForUpgrade(app, today))

	app = learnerApp(ptr(date(2024, 1, 1)), ptr(today))
	assert.True(t, EligibleForUpgrade(app, today), "expiring today is not yet expired")
}

func TestEligibleForUpgrade_PartialDayNotCounted(t *testing.T) {
	today := date(2024, 6, 30)
	issue := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC) // 29.5 days

	assert.False(t, EligibleForUpgrade(learnerApp(&issue, ptr(date(2024, 12, 1))), today))
}

func TestEligibleForUpgrade_MissingPreconditions(t *testing.T) {
	today := date(2024, 6, 30)

	assert.False(t, EligibleForUpgrade(LicenseApplication{}, today))
	assert.False(t, EligibleForUpgrade(learnerApp(nil, ptr(date(2024, 12, 1))), today))
	assert.False(t, EligibleForUpgrade(learnerApp(ptr(date(2024, 1, 1)), nil), today))
}

func TestEligibleForUpgrade_FutureIssueDate(t *testing.T) {
	today := date(2024, 6, 30)
	assert.False(t, EligibleForUpgrade(learnerApp(ptr(date(2024, 7, 5)), ptr(date(2025, 1, 5))), today))
}

func TestLearnerExpiringWithin_Boundary(t *testing.T) {
	today := date(2024, 6, 1)

	assert.True(t, LearnerExpiringWithin(learnerApp(nil, ptr(date(2024, 7, 1))), today, 30), "30 days away")
	assert.False(t, LearnerExpiringWithin(learnerApp(nil, ptr(date(2024, 7, 2))), today, 30), "31 days away")
	assert.True(t, LearnerExpiringWithin(learnerApp(nil, ptr(date(2024, 7, 2))), today, 45))
	assert.True(t, LearnerExpiringWithin(learnerApp(nil, ptr(today)), today, 30), "expires today")
}

func TestLearnerExpiringWithin_AlreadyExpired(t *testing.T) {
	today := date(2024, 6, 1)

	assert.False(t, LearnerExpiringWithin(learnerApp(nil, ptr(date(2024, 5, 1))), today, 30))
	assert.False(t, LearnerExpiringWithin(learnerApp(nil, ptr(date(2024, 5, 31))), today, 45))
}

func TestLearnerExpiringWithin_PartialDayCountsAsWhole(t *testing.T) {
	today := date(2024, 6, 1)
	expiry := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) // 30.5 days

	assert.False(t, LearnerExpiringWithin(learnerApp(nil, &expiry), today, 30))
	assert.True(t, LearnerExpiringWithin(learnerApp(nil, &expiry), today, 31))

	tomorrowNoon := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, LearnerExpiringWithin(learnerApp(nil, &tomorrowNoon), today, 1))
}

func TestLearnerExpiringWithin_MissingExpiry(t *testing.T) {
	today := date(2024, 6, 1)

	assert.False(t, LearnerExpiringWithin(LicenseApplication{}, today, 30))
	assert.False(t, LearnerExpiringWithin(learnerApp(ptr(date(2024, 5, 1)), nil), today, 30))
}

func TestDayCounts_AcrossDaylightSaving(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2024-03-10 has 23 hours in New York.
	today := time.Date(2024, 3, 31, 0, 0, 0, 0, ny)
	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, ny)

	days, ok := DaysSinceIssue(learnerApp(&issue, nil), today)
	require.True(t, ok)
	assert.Equal(t, 30, days)
	assert.True(t, EligibleForUpgrade(learnerApp(&issue, ptr(time.Date(2024, 9, 1, 0, 0, 0, 0, ny))), today))
}

func TestDaysUntilExpiry(t *testing.T) {
	today := date(2024, 6, 1)

	days, ok := DaysUntilExpiry(learnerApp(nil, ptr(date(2024, 7, 1))), today)
	require.True(t, ok)
	assert.Equal(t, 30, days)

	days, ok = DaysUntilExpiry(learnerApp(nil, ptr(date(2024, 5, 1))), today)
	require.True(t, ok)
	assert.Equal(t, -31, days)

	_, ok = DaysUntilExpiry(LicenseApplication{}, today)
	assert.False(t, ok)
}

func TestClassify_Idempotent(t *testing.T) {
	today := date(2024, 6, 30)
	app := learnerApp(ptr(date(2024, 5, 1)), ptr(date(2024, 7, 20)))

	first := Classify(app, today)
	second := Classify(app, today)

	assert.Equal(t, first, second)
	assert.True(t, first.EligibleForUpgrade)
	assert.True(t, first.LearnerExpiringWithin(ExpiryWindowShort))
	assert.True(t, first.LearnerExpiringWithin(ExpiryWindowLong))
	assert.Equal(t, date(2024, 5, 1), *app.Learner.IssueDate, "input must not be mutated")
}

func TestClassify_MalformedIssueDate(t *testing.T) {
	today := date(2024, 6, 1)
	app := Normalize(RawRecord{
		"_id":          "x1",
		"LLIssueDate":  "not-a-date",
		"LLExpiryDate": "2025-01-01",
	})

	c := Classify(app, today)
	assert.False(t, c.EligibleForUpgrade)
	assert.False(t, c.LearnerExpiringWithin(ExpiryWindowShort))
	assert.False(t, c.LearnerExpiringWithin(ExpiryWindowLong))
}

func TestClassify_MalformedExpiryDate(t *testing.T) {
	today := date(2024, 6, 1)
	app := Normalize(RawRecord{
		"LLIssueDate":  "2024-01-01",
		"LLExpiryDate": "31/31/2024",
	})

	c := Classify(app, today)
	assert.False(t, c.EligibleForUpgrade)
	assert.False(t, c.LearnerExpiringWithin(ExpiryWindowLong))
}
