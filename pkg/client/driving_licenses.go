package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Pagination defaults applied by the backend when parameters are absent.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// ListQuery selects one page of driving licence applications.  Empty
// LicenseClass / PaymentStatus, or "All", send no filter.
type ListQuery struct {
	Page          int
	Limit         int
	Search        string
	LicenseClass  string
	PaymentStatus string
}

// PageInfo is the pagination block of a list response.
type PageInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

// LicensePage is one page of raw application records.  Records are kept
// as decoded JSON objects; canonicalisation is the caller's concern.
type LicensePage struct {
	Records    []map[string]interface{} `json:"data"`
	Pagination PageInfo                 `json:"pagination"`
}

// LicenseStatistics is the dataset-wide aggregate behind the desk tiles.
type LicenseStatistics struct {
	TotalApplications    int64   `json:"totalApplications"`
	LLExpiringCount      int64   `json:"llExpiringCount"`
	LLEligibleForDLCount int64   `json:"llEligibleForDLCount"`
	PendingPaymentCount  int64   `json:"pendingPaymentCount"`
	PendingPaymentAmount float64 `json:"pendingPaymentAmount"`
}

// DrivingLicensesClient provides access to the driving licence endpoints.
type DrivingLicensesClient struct {
	client *Client
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

// buildListQueryParams encodes a ListQuery into a URL query string.
func (dc *DrivingLicensesClient) buildListQueryParams(query *ListQuery) string {
	params := url.Values{}

	page := query.Page
	if page <= 0 {
		page = DefaultPage
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	if s := strings.TrimSpace(query.Search); s != "" {
		params.Set("search", s)
	}
	if !isAll(query.LicenseClass) {
		params.Set("licenseClass", strings.TrimSpace(query.LicenseClass))
	}
	if !isAll(query.PaymentStatus) {
		params.Set("paymentStatus", strings.TrimSpace(query.PaymentStatus))
	}

	return params.Encode()
}

// unwrapData decodes either {"data": {...}} or a bare object into v.
func unwrapData(raw json.RawMessage, v interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		return json.Unmarshal(envelope.Data, v)
	}
	return json.Unmarshal(raw, v)
}

// ---------------------------------------------------------------------------
// Public methods
// ---------------------------------------------------------------------------

// List retrieves one page of applications.
// GET /driving-licenses?page&limit&search&licenseClass&paymentStatus
func (dc *DrivingLicensesClient) List(ctx context.Context, query *ListQuery) (*LicensePage, error) {
	if query == nil {
		query = &ListQuery{}
	}
	if query.Page < 0 {
		return nil, invalidArg("page must not be negative")
	}
	if query.Limit < 0 || query.Limit > MaxLimit {
		return nil, invalidArg("limit must be between 0 and " + strconv.Itoa(MaxLimit))
	}

	var resp LicensePage
	if err := dc.client.get(ctx, "/driving-licenses?"+dc.buildListQueryParams(query), &resp); err != nil {
		return nil, err
	}
	if resp.Records == nil {
		resp.Records = []map[string]interface{}{}
	}
	return &resp, nil
}

// Statistics retrieves the dataset-wide aggregate counts.
// GET /driving-licenses/statistics
func (dc *DrivingLicensesClient) Statistics(ctx context.Context) (*LicenseStatistics, error) {
	var raw json.RawMessage
	if err := dc.client.get(ctx, "/driving-licenses/statistics", &raw); err != nil {
		return nil, err
	}
	var stats LicenseStatistics
	if len(raw) == 0 {
		return &stats, nil
	}
	if err := unwrapData(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Get retrieves a single application record.
// GET /driving-licenses/{id}
func (dc *DrivingLicensesClient) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidArg("id is required")
	}
	var raw json.RawMessage
	if err := dc.client.get(ctx, "/driving-licenses/"+url.PathEscape(id), &raw); err != nil {
		return nil, err
	}
	record := map[string]interface{}{}
	if len(raw) == 0 {
		return record, nil
	}
	if err := unwrapData(raw, &record); err != nil {
		return nil, err
	}
	return record, nil
}
