package license

import (
	"sort"
	"time"
)

// Reconcile returns the visible subset of a page under sel as of today.
//
// It works on the page-local records only, which is why its result can be
// smaller than the server-side count of the same category.  The input slice
// is not modified.
//
//   - EligibleForUpgrade: eligible records, most recently issued learner's
//     licence first; ties keep page order.
//   - ExpiringWithin(N): matching records in page order.
//   - None: licence class and payment status filters.
func Reconcile(apps []LicenseApplication, sel FilterSelection, today time.Time) []LicenseApplication {
	out := make([]LicenseApplication, 0, len(apps))

	switch sel.Special.Kind() {
	case KindEligibleForUpgrade, KindExpiringWithin:
		for _, app := range apps {
			if sel.Special.Matches(app, today) {
				out = append(out, app)
			}
		}
	default:
		for _, app := range apps {
			if sel.MatchesOrdinary(app) {
				out = append(out, app)
			}
		}
	}

	if sel.Special.Kind() == KindEligibleForUpgrade {
		sort.SliceStable(out, func(i, j int) bool {
			return issuedAfter(out[i], out[j])
		})
	}
	return out
}

// issuedAfter orders by learner issue date descending.  Records without an
// issue date sort last.
func issuedAfter(a, b LicenseApplication) bool {
	ai, bi := learnerIssue(a), learnerIssue(b)
	switch {
	case ai == nil:
		return false
	case bi == nil:
		return true
	default:
		return ai.After(*bi)
	}
}

func learnerIssue(app LicenseApplication) *time.Time {
	if app.Learner == nil {
		return nil
	}
	return app.Learner.IssueDate
}
