package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RTO-Desk/internal/application/licensing"
)

// The backend page holds four learners as of 2024-06-01:
//   - c: issued 2024-04-01, 61 days old, expires 2024-10-01 (eligible)
//   - b: issued 2024-05-20, too young
//   - d: learner's licence expired 2024-05-31
//   - a: issued 2024-01-10, expires 2024-06-20 (eligible, expiring within 30)
const listPayload = `{
	"data": [
		{"_id": "c", "name": "Chitra", "vehicleClass": "LMV", "LLNumber": "LL-C",
		 "llIssueDate": "2024-04-01", "LLExpiryDate": "2024-10-01", "balanceAmount": 0},
		{"_id": "b", "name": "Bala", "vehicleClass": "MCWG", "LLNumber": "LL-B",
		 "llIssueDate": "2024-05-20", "LLExpiryDate": "2024-11-20", "balanceAmount": 250},
		{"_id": "d", "name": "Devi", "vehicleClass": "LMV", "LLNumber": "LL-D",
		 "llIssueDate": "2023-12-01", "LLExpiryDate": "2024-05-31",
		 "DLNumber": "DL-D", "dlIssueDate": "2024-02-01", "dlExpiryDate": "2044-02-01", "balanceAmount": 0},
		{"_id": "a", "name": "Arun", "vehicleClass": "LMV", "LLNumber": "LL-A",
		 "llIssueDate": "2024-01-10", "LLExpiryDate": "2024-06-20", "balanceAmount": 100}
	],
	"pagination": {"currentPage": 1, "totalPages": 3, "totalItems": 24}
}`

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/driving-licenses/statistics":
			w.Write([]byte(`{"data": {"totalApplications": 24, "llExpiringCount": 9, "llEligibleForDLCount": 12, "pendingPaymentCount": 4, "pendingPaymentAmount": 5400}}`))
		case r.URL.Path == "/driving-licenses":
			w.Write([]byte(listPayload))
		case r.URL.Path == "/driving-licenses/a":
			w.Write([]byte(`{"data": {"_id": "a", "name": "Arun", "vehicleClass": "LMV", "LLNumber": "LL-A", "llIssueDate": "2024-01-10", "LLExpiryDate": "2024-06-20", "totalAmount": 500, "paidAmount": 400, "balanceAmount": 100}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code": "NOT_FOUND", "message": "no such application"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	srv := fakeBackend(t)
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--base-url", srv.URL, "--timezone", "UTC", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLicensesList_EligibleFilterJSON(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "licenses", "list", "--filter", "eligible", "--today", "2024-06-01")
	require.NoError(t, err)

	var view struct {
		Rows []struct {
			Application struct {
				ID string `json:"id"`
			} `json:"application"`
			EligibleForUpgrade bool `json:"eligibleForUpgrade"`
		} `json:"rows"`
		FilterLabel string `json:"filterLabel"`
		Today       string `json:"today"`
		Tiles       struct {
			Available       bool  `json:"available"`
			LLEligibleForDL int64 `json:"llEligibleForDL"`
		} `json:"tiles"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	ids := []string{}
	for _, r := range view.Rows {
		ids = append(ids, r.Application.ID)
		assert.True(t, r.EligibleForUpgrade)
	}
	assert.Equal(t, []string{"c", "a"}, ids, "most recently issued learner first")
	assert.Equal(t, "LL eligible for DL", view.FilterLabel)
	assert.Equal(t, "2024-06-01", view.Today)
	assert.True(t, view.Tiles.Available)
	assert.Equal(t, int64(12), view.Tiles.LLEligibleForDL, "tiles come from the statistics endpoint, not the page")
}

func TestLicensesList_Table(t *testing.T) {
	out, err := runCLI(t, "licenses", "list", "--today", "2024-06-01")
	require.NoError(t, err)

	assert.Contains(t, out, "LL ISSUED")
	assert.Contains(t, out, "01-04-2024")
	assert.Contains(t, out, "Page 1 of 3 (24 applications), as of 2024-06-01")
	assert.Contains(t, out, "LL expiring: 9 | LL eligible for DL: 12 | Pending payments: 4 (5400)")
	assert.NotContains(t, out, "Filter:")
}

func TestLicensesList_InvalidArguments(t *testing.T) {
	_, err := runCLI(t, "licenses", "list", "--filter", "expiring-60")
	assert.Error(t, err)

	_, err = runCLI(t, "licenses", "list", "--payment", "partial")
	assert.Error(t, err)

	_, err = runCLI(t, "licenses", "list", "--today", "01-06-2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")

	_, err = runCLI(t, "licenses", "list", "--limit", "1000")
	assert.Error(t, err)
}

func TestLicensesShow(t *testing.T) {
	out, err := runCLI(t, "licenses", "show", "a", "--today", "2024-06-01")
	require.NoError(t, err)

	assert.Contains(t, out, "LL-A")
	assert.Contains(t, out, "20-06-2024")
	assert.Regexp(t, `Days until LL expiry\s+19`, out)
	assert.Regexp(t, `Payment\s+Pending`, out)

	_, err = runCLI(t, "licenses", "show", "zzz")
	assert.Error(t, err)

	_, err = runCLI(t, "licenses", "show")
	assert.Error(t, err)
}

func TestLicensesStats(t *testing.T) {
	out, err := runCLI(t, "-o", "text", "licenses", "stats", "--refresh")
	require.NoError(t, err)

	assert.Contains(t, out, "LL eligible for DL: 12")
	assert.Contains(t, out, "Pending amount: 5400")
}

func TestLicensesFilters(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "licenses", "filters")
	require.NoError(t, err)

	var entries []licensing.FilterOption
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	tokens := []string{}
	for _, e := range entries {
		tokens = append(tokens, e.Token)
	}
	assert.Equal(t, []string{"eligible", "expiring-30", "expiring-45", "All", "Paid", "Pending"}, tokens)

	out, err = runCLI(t, "-o", "text", "dl", "filters")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "eligible\tLL eligible for DL"))
}
