// Package license holds the driving licence desk core: the canonical
// application record, its normaliser, the learner-licence classification
// predicates and the filter state reconciled against a page of records.
//
// Everything here is pure.  Callers pass "today" explicitly; nothing in this
// package reads the wall clock.
package license

import (
	"time"
)

// NumberPlaceholder is shown for a licence number that is not on record.
const NumberPlaceholder = "-"

// RawRecord is a driving licence application exactly as the records backend
// returned it.
type RawRecord map[string]interface{}

// ─────────────────────────────────────────────────────────────────────────────
// Canonical record
// ─────────────────────────────────────────────────────────────────────────────

// LicenseDocument is a learner's or full driving licence attached to an
// application.  Dates are calendar dates at midnight in the office location;
// nil means the date is not known.
type LicenseDocument struct {
	Number     string     `json:"number"`
	IssueDate  *time.Time `json:"issueDate,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
}

// HasDates reports whether both issue and expiry dates are known.
func (d *LicenseDocument) HasDates() bool {
	return d != nil && d.IssueDate != nil && d.ExpiryDate != nil
}

// Payment carries the fee figures of an application.  The balance is taken
// as recorded; it is not reconciled against total and paid.
type Payment struct {
	TotalAmount   float64 `json:"totalAmount"`
	PaidAmount    float64 `json:"paidAmount"`
	BalanceAmount float64 `json:"balanceAmount"`
}

// Status is Paid when nothing is outstanding, Pending otherwise.
func (p Payment) Status() PaymentStatus {
	if p.BalanceAmount == 0 {
		return PaymentPaid
	}
	return PaymentPending
}

// LicenseApplication is the canonical driving licence application record.
// Instances are built per page fetch and are not mutated afterwards.
type LicenseApplication struct {
	ID           string           `json:"id"`
	HolderName   string           `json:"holderName"`
	Mobile       string           `json:"mobile"`
	LicenseClass string           `json:"licenseClass"`
	Learner      *LicenseDocument `json:"learnerLicense,omitempty"`
	Full         *LicenseDocument `json:"fullLicense,omitempty"`
	Payment      Payment          `json:"payment"`

	// Raw is the backend payload the record was built from.  Read-only.
	Raw RawRecord `json:"-"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Page and statistics
// ─────────────────────────────────────────────────────────────────────────────

// Pagination describes where a page sits in the server-side result set.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

// PageQuery asks the records backend for one page.  LicenseClass and
// PaymentStatus narrow the page server-side; empty or All sends no filter.
type PageQuery struct {
	Page          int
	Limit         int
	Search        string
	LicenseClass  string
	PaymentStatus PaymentStatus
}

// Page is one server-side page of applications.
type Page struct {
	Records    []LicenseApplication `json:"records"`
	Pagination Pagination           `json:"pagination"`
}

// Statistics are the dataset-wide counts shown on the desk tiles.  They come
// from the backend aggregate and are never derived from a page of records.
type Statistics struct {
	TotalApplications    int64   `json:"totalApplications"`
	LLExpiringCount      int64   `json:"llExpiringCount"`
	LLEligibleForDLCount int64   `json:"llEligibleForDLCount"`
	PendingPaymentCount  int64   `json:"pendingPaymentCount"`
	PendingPaymentAmount float64 `json:"pendingPaymentAmount"`
}
