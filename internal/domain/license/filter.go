package license

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Special (time-windowed) filter
// ─────────────────────────────────────────────────────────────────────────────

// FilterKind enumerates the variants of FilterState.
type FilterKind int

const (
	KindNone FilterKind = iota
	KindEligibleForUpgrade
	KindExpiringWithin
)

// FilterState is the active time-windowed filter.  At most one is active at
// a time.  The zero value is FilterNone.  Values outside the declared
// variables cannot be constructed from other packages.
type FilterState struct {
	kind   FilterKind
	window int
}

var (
	FilterNone               = FilterState{}
	FilterEligibleForUpgrade = FilterState{kind: KindEligibleForUpgrade}
	FilterExpiringWithin30   = FilterState{kind: KindExpiringWithin, window: ExpiryWindowShort}
	FilterExpiringWithin45   = FilterState{kind: KindExpiringWithin, window: ExpiryWindowLong}
)

// SpecialFilters lists the selectable special filters in chip order.
var SpecialFilters = []FilterState{
	FilterEligibleForUpgrade,
	FilterExpiringWithin30,
	FilterExpiringWithin45,
}

// Kind returns the variant.
func (f FilterState) Kind() FilterKind { return f.kind }

// WindowDays returns N for ExpiringWithin(N), zero otherwise.
func (f FilterState) WindowDays() int { return f.window }

// IsNone reports whether no special filter is active.
func (f FilterState) IsNone() bool { return f.kind == KindNone }

// String returns the token used on the command line and in query strings.
func (f FilterState) String() string {
	switch f.kind {
	case KindEligibleForUpgrade:
		return "eligible"
	case KindExpiringWithin:
		return "expiring-" + strconv.Itoa(f.window)
	default:
		return "none"
	}
}

// Label is the chip text shown while the filter is active.  Empty for None.
func (f FilterState) Label() string {
	switch f.kind {
	case KindEligibleForUpgrade:
		return "LL eligible for DL"
	case KindExpiringWithin:
		return fmt.Sprintf("LL expiring in %d days", f.window)
	default:
		return ""
	}
}

// Matches reports whether app passes the filter as of today.  FilterNone
// matches everything.
func (f FilterState) Matches(app LicenseApplication, today time.Time) bool {
	switch f.kind {
	case KindEligibleForUpgrade:
		return EligibleForUpgrade(app, today)
	case KindExpiringWithin:
		return LearnerExpiringWithin(app, today, f.window)
	default:
		return true
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f FilterState) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FilterState) UnmarshalText(b []byte) error {
	parsed, err := ParseFilterState(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFilterState reads a filter token.  Accepted: "", "none", "eligible",
// "expiring-30", "expiring-45".
func ParseFilterState(s string) (FilterState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "all":
		return FilterNone, nil
	case "eligible", "eligible-for-dl":
		return FilterEligibleForUpgrade, nil
	case "expiring-30", "expiring30":
		return FilterExpiringWithin30, nil
	case "expiring-45", "expiring45":
		return FilterExpiringWithin45, nil
	}
	return FilterNone, errors.Newf(errors.CodeInvalidFilter, "unknown filter %q", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// Ordinary filters
// ─────────────────────────────────────────────────────────────────────────────

// LicenseClassAll disables the licence class filter.
const LicenseClassAll = "All"

// PaymentStatus is the payment filter value; a record is Paid when its
// balance is zero.
type PaymentStatus string

const (
	PaymentAll     PaymentStatus = "All"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
)

// ParsePaymentStatus is case-insensitive; empty means All.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PaymentAll, nil
	case "paid":
		return PaymentPaid, nil
	case "pending":
		return PaymentPending, nil
	}
	return PaymentAll, errors.Newf(errors.CodeInvalidFilter, "unknown payment status %q", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// FilterSelection
// ─────────────────────────────────────────────────────────────────────────────

// FilterSelection is the complete filter state of the desk.  Transitions
// return a new value.  Ordinary filters are only applied while Special is
// FilterNone, and selecting a special filter resets them, so the two never
// combine.
type FilterSelection struct {
	Special       FilterState   `json:"special"`
	LicenseClass  string        `json:"licenseClass"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// NewFilterSelection returns the initial state: no special filter, ordinary
// filters at All.
func NewFilterSelection() FilterSelection {
	return FilterSelection{
		Special:       FilterNone,
		LicenseClass:  LicenseClassAll,
		PaymentStatus: PaymentAll,
	}
}

// SelectSpecial activates f.  Selecting the active filter again clears it.
// Activating a filter resets the ordinary filters.
func (s FilterSelection) SelectSpecial(f FilterState) FilterSelection {
	if f.IsNone() || s.Special == f {
		s.Special = FilterNone
		return s.normalized()
	}
	return FilterSelection{
		Special:       f,
		LicenseClass:  LicenseClassAll,
		PaymentStatus: PaymentAll,
	}
}

// SelectLicenseClass sets the class filter and clears any special filter.
func (s FilterSelection) SelectLicenseClass(class string) FilterSelection {
	s.Special = FilterNone
	s.LicenseClass = strings.TrimSpace(class)
	return s.normalized()
}

// SelectPaymentStatus sets the payment filter and clears any special filter.
func (s FilterSelection) SelectPaymentStatus(p PaymentStatus) FilterSelection {
	s.Special = FilterNone
	s.PaymentStatus = p
	return s.normalized()
}

// Clear returns the initial state.
func (s FilterSelection) Clear() FilterSelection {
	return NewFilterSelection()
}

// Label is the chip text of the active special filter.
func (s FilterSelection) Label() string {
	return s.Special.Label()
}

// ClassFilter returns the effective class filter; empty when disabled.
func (s FilterSelection) ClassFilter() string {
	if !s.Special.IsNone() || s.LicenseClass == "" || strings.EqualFold(s.LicenseClass, LicenseClassAll) {
		return ""
	}
	return s.LicenseClass
}

// PaymentFilter returns the effective payment filter; PaymentAll when
// disabled.
func (s FilterSelection) PaymentFilter() PaymentStatus {
	if !s.Special.IsNone() || s.PaymentStatus == "" {
		return PaymentAll
	}
	return s.PaymentStatus
}

// MatchesOrdinary applies the class and payment filters to app.
func (s FilterSelection) MatchesOrdinary(app LicenseApplication) bool {
	if class := s.ClassFilter(); class != "" && app.LicenseClass != class {
		return false
	}
	if status := s.PaymentFilter(); status != PaymentAll && app.Payment.Status() != status {
		return false
	}
	return true
}

func (s FilterSelection) normalized() FilterSelection {
	if s.LicenseClass == "" {
		s.LicenseClass = LicenseClassAll
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = PaymentAll
	}
	return s
}
