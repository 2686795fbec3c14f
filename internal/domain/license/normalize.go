package license

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// fieldSources lists backend field names for one canonical field, most
// recent naming scheme first.  The first source holding a value wins.  For
// string fields a literal "-" counts as absent, so a placeholder in the new
// scheme falls through to the legacy field.
type fieldSources []string

// Fallback tables.  The backend renamed most fields once (camel-case
// abbreviations became LL*/DL* upper-case prefixes); both schemes are still
// served.
var (
	idSources           = fieldSources{"_id", "id"}
	holderNameSources   = fieldSources{"name", "holderName", "applicantName"}
	mobileSources       = fieldSources{"mobileNumber", "mobile", "phone"}
	licenseClassSources = fieldSources{"licenseClass", "vehicleClass", "class"}

	learnerNumberSources = fieldSources{"LLNumber", "llNumber", "learnerLicenseNumber"}
	learnerIssueSources  = fieldSources{"LLIssueDate", "llIssueDate", "learnerLicenseIssueDate"}
	learnerExpirySources = fieldSources{"LLExpiryDate", "llExpiryDate", "learnerLicenseExpiryDate"}

	fullNumberSources = fieldSources{"DLNumber", "dlNumber", "licenseNumber"}
	fullIssueSources  = fieldSources{"DLIssueDate", "dlIssueDate", "licenseIssueDate"}
	fullExpirySources = fieldSources{"DLExpiryDate", "dlExpiryDate", "licenseExpiryDate"}

	totalAmountSources   = fieldSources{"totalAmount", "totalFee"}
	paidAmountSources    = fieldSources{"paidAmount", "paid"}
	balanceAmountSources = fieldSources{"balanceAmount", "balance"}
)

// dateLayouts are tried in order.  Layouts without a zone are read in the
// normaliser's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

// DisplayDateLayout is the DD-MM-YYYY presentation format.
const DisplayDateLayout = "02-01-2006"

// Normalizer turns raw backend records into LicenseApplication values.
// Dates are reduced to calendar dates in Location.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer for the given office location.  A nil
// location means UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the office location dates are reduced in.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Normalize maps raw onto the canonical record.  It never fails: unknown or
// malformed values fall back to placeholders.
func (n *Normalizer) Normalize(raw RawRecord) LicenseApplication {
	app := LicenseApplication{
		ID:           lookupString(raw, idSources),
		HolderName:   lookupString(raw, holderNameSources),
		Mobile:       lookupString(raw, mobileSources),
		LicenseClass: lookupString(raw, licenseClassSources),
		Learner:      n.document(raw, learnerNumberSources, learnerIssueSources, learnerExpirySources),
		Full:         n.document(raw, fullNumberSources, fullIssueSources, fullExpirySources),
		Payment:      payment(raw),
		Raw:          raw,
	}
	return app
}

// NormalizeAll normalises a page of records, preserving order.
func (n *Normalizer) NormalizeAll(raws []RawRecord) []LicenseApplication {
	out := make([]LicenseApplication, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw))
	}
	return out
}

// ParseDate reads v as a calendar date in the normaliser's location.
// Unparsable or absent input yields nil.
func (n *Normalizer) ParseDate(v interface{}) *time.Time {
	return parseDate(v, n.loc)
}

func (n *Normalizer) document(raw RawRecord, number, issue, expiry fieldSources) *LicenseDocument {
	doc := &LicenseDocument{
		Number:     lookupString(raw, number),
		IssueDate:  n.lookupDate(raw, issue),
		ExpiryDate: n.lookupDate(raw, expiry),
	}
	if doc.Number == "" {
		doc.Number = NumberPlaceholder
	}
	if doc.Number == NumberPlaceholder && doc.IssueDate == nil && doc.ExpiryDate == nil {
		return nil
	}
	return doc
}

// lookupDate parses the first present source.  A malformed value yields nil
// even when an older source holds a valid date.
func (n *Normalizer) lookupDate(raw RawRecord, sources fieldSources) *time.Time {
	for _, key := range sources {
		if v := raw[key]; present(v) {
			return parseDate(v, n.loc)
		}
	}
	return nil
}

// present reports whether v carries a value at all, parsable or not.
func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case time.Time:
		return !t.IsZero()
	case *time.Time:
		return t != nil && !t.IsZero()
	default:
		return true
	}
}

func payment(raw RawRecord) Payment {
	total, _ := lookupAmount(raw, totalAmountSources)
	paid, _ := lookupAmount(raw, paidAmountSources)
	balance, ok := lookupAmount(raw, balanceAmountSources)
	if !ok {
		balance = math.Max(total-paid, 0)
	}
	return Payment{TotalAmount: total, PaidAmount: paid, BalanceAmount: balance}
}

// ─────────────────────────────────────────────────────────────────────────────
// Value coercion
// ─────────────────────────────────────────────────────────────────────────────

func lookupString(raw RawRecord, sources fieldSources) string {
	for _, key := range sources {
		if s := toString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == NumberPlaceholder {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func lookupAmount(raw RawRecord, sources fieldSources) (float64, bool) {
	for _, key := range sources {
		if f, ok := toAmount(raw[key]); ok {
			return f, true
		}
	}
	return 0, false
}

func toAmount(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDate(v interface{}, loc *time.Location) *time.Time {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return nil
		}
		t = val.In(loc)
	case *time.Time:
		if val == nil || val.IsZero() {
			return nil
		}
		t = val.In(loc)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		parsed, ok := parseDateString(s, loc)
		if !ok {
			return nil
		}
		t = parsed
	default:
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return &d
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// FormatDisplayDate renders d as DD-MM-YYYY, or the placeholder when nil.
func FormatDisplayDate(d *time.Time) string {
	if d == nil {
		return NumberPlaceholder
	}
	return d.Format(DisplayDateLayout)
}

var defaultNormalizer = NewNormalizer(time.UTC)

// Normalize maps raw with dates reduced in UTC.
func Normalize(raw RawRecord) LicenseApplication {
	return defaultNormalizer.Normalize(raw)
}

// ParseDate reads v as a calendar date in UTC.
func ParseDate(v interface{}) *time.Time {
	return defaultNormalizer.ParseDate(v)
}
