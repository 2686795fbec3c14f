package licensing

import (
	"strings"

	"github.com/turtacn/RTO-Desk/internal/domain/license"
	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// FilterAction names a chip interaction on the desk.
type FilterAction string

const (
	ActionSelectSpecial FilterAction = "special"
	ActionSelectClass   FilterAction = "class"
	ActionSelectPayment FilterAction = "payment"
	ActionClear         FilterAction = "clear"
)

// FilterTransition is the result of applying a FilterAction.
type FilterTransition struct {
	Selection license.FilterSelection `json:"selection"`
	Label     string                  `json:"label"`
}

// ApplyFilterAction moves current to the next selection.  value is a filter
// token for ActionSelectSpecial, a class for ActionSelectClass and a payment
// status for ActionSelectPayment; it is ignored by ActionClear.
func ApplyFilterAction(current license.FilterSelection, action FilterAction, value string) (FilterTransition, error) {
	var next license.FilterSelection
	switch FilterAction(strings.ToLower(string(action))) {
	case ActionSelectSpecial:
		f, err := license.ParseFilterState(value)
		if err != nil {
			return FilterTransition{}, err
		}
		next = current.SelectSpecial(f)
	case ActionSelectClass:
		next = current.SelectLicenseClass(value)
	case ActionSelectPayment:
		p, err := license.ParsePaymentStatus(value)
		if err != nil {
			return FilterTransition{}, err
		}
		next = current.SelectPaymentStatus(p)
	case ActionClear:
		next = current.Clear()
	default:
		return FilterTransition{}, errors.Newf(errors.CodeInvalidFilter, "unknown filter action %q", action)
	}
	return FilterTransition{Selection: next, Label: next.Label()}, nil
}

// FilterOption is one selectable chip.
type FilterOption struct {
	Token string `json:"token"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// FilterCatalog lists the special filters followed by the payment statuses,
// in chip order.
func FilterCatalog() []FilterOption {
	out := make([]FilterOption, 0, len(license.SpecialFilters)+3)
	for _, f := range license.SpecialFilters {
		out = append(out, FilterOption{Token: f.String(), Label: f.Label(), Kind: "special"})
	}
	for _, p := range []license.PaymentStatus{license.PaymentAll, license.PaymentPaid, license.PaymentPending} {
		out = append(out, FilterOption{Token: string(p), Label: "payment " + strings.ToLower(string(p)), Kind: "payment"})
	}
	return out
}

// SelectionFromTokens builds a selection from query tokens.  A non-empty
// special filter wins over class and payment, as it does on the desk.
func SelectionFromTokens(class, payment, special string) (license.FilterSelection, error) {
	sel := license.NewFilterSelection()
	if class != "" {
		sel = sel.SelectLicenseClass(class)
	}
	p, err := license.ParsePaymentStatus(payment)
	if err != nil {
		return sel, err
	}
	sel = sel.SelectPaymentStatus(p)
	f, err := license.ParseFilterState(special)
	if err != nil {
		return sel, err
	}
	if !f.IsNone() {
		sel = sel.SelectSpecial(f)
	}
	return sel, nil
}
