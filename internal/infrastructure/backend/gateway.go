// Package backend adapts the records backend SDK to the desk's ports.
package backend

import (
	"context"
	"time"

	"github.com/turtacn/RTO-Desk/internal/domain/license"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RTO-Desk/pkg/client"
	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// DrivingLicensesAPI is the slice of the SDK the gateway uses.
type DrivingLicensesAPI interface {
	List(ctx context.Context, query *client.ListQuery) (*client.LicensePage, error)
	Statistics(ctx context.Context) (*client.LicenseStatistics, error)
	Get(ctx context.Context, id string) (map[string]interface{}, error)
}

// Gateway serves pages, single applications and statistics from the
// records backend, normalised into canonical records.
type Gateway struct {
	api        DrivingLicensesAPI
	normalizer *license.Normalizer
	metrics    *prom.AppMetrics
	logger     logging.Logger
}

// NewGateway builds a Gateway.  metrics may be nil.
func NewGateway(api DrivingLicensesAPI, normalizer *license.Normalizer, metrics *prom.AppMetrics, logger logging.Logger) *Gateway {
	if normalizer == nil {
		normalizer = license.NewNormalizer(time.UTC)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Gateway{
		api:        api,
		normalizer: normalizer,
		metrics:    metrics,
		logger:     logger.Named("backend"),
	}
}

func (g *Gateway) ListPage(ctx context.Context, q license.PageQuery) (*license.Page, error) {
	start := time.Now()
	resp, err := g.api.List(ctx, &client.ListQuery{
		Page:          q.Page,
		Limit:         q.Limit,
		Search:        q.Search,
		LicenseClass:  q.LicenseClass,
		PaymentStatus: string(q.PaymentStatus),
	})
	g.observe("list", start, err)
	if err != nil {
		return nil, translate(err, "list driving licence applications")
	}

	raws := make([]license.RawRecord, len(resp.Records))
	for i, r := range resp.Records {
		raws[i] = license.RawRecord(r)
	}
	g.logger.Debug("fetched application page",
		logging.Int("page", resp.Pagination.CurrentPage),
		logging.Int("records", len(raws)),
	)
	return &license.Page{
		Records: g.normalizer.NormalizeAll(raws),
		Pagination: license.Pagination{
			CurrentPage: resp.Pagination.CurrentPage,
			TotalPages:  resp.Pagination.TotalPages,
			TotalItems:  resp.Pagination.TotalItems,
		},
	}, nil
}

func (g *Gateway) GetApplication(ctx context.Context, id string) (*license.LicenseApplication, error) {
	start := time.Now()
	raw, err := g.api.Get(ctx, id)
	g.observe("get", start, err)
	if err != nil {
		return nil, translate(err, "get driving licence application")
	}
	app := g.normalizer.Normalize(license.RawRecord(raw))
	return &app, nil
}

func (g *Gateway) Statistics(ctx context.Context) (*license.Statistics, error) {
	start := time.Now()
	s, err := g.api.Statistics(ctx)
	g.observe("statistics", start, err)
	if err != nil {
		return nil, translate(err, "fetch driving licence statistics")
	}
	return &license.Statistics{
		TotalApplications:    s.TotalApplications,
		LLExpiringCount:      s.LLExpiringCount,
		LLEligibleForDLCount: s.LLEligibleForDLCount,
		PendingPaymentCount:  s.PendingPaymentCount,
		PendingPaymentAmount: s.PendingPaymentAmount,
	}, nil
}

// Ping checks that the backend answers the statistics endpoint.
func (g *Gateway) Ping(ctx context.Context) error {
	_, err := g.Statistics(ctx)
	return err
}

func (g *Gateway) observe(endpoint string, start time.Time, err error) {
	if g.metrics != nil {
		prom.RecordBackendCall(g.metrics, endpoint, time.Since(start), err)
	}
	if err != nil {
		g.logger.Warn("backend call failed", logging.String("endpoint", endpoint), logging.Err(err))
	}
}

// translate maps SDK failures onto application error codes.
func translate(err error, op string) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.IsNotFound():
		return errors.Wrap(err, errors.ErrCodeLicenseNotFound, op)
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		return errors.Wrap(err, errors.ErrCodeUnauthorized, op)
	case errors.As(err, &apiErr) && !apiErr.IsServerError() && !apiErr.IsRateLimited():
		return errors.Wrap(err, errors.ErrCodeBackendResponse, op)
	case errors.Is(err, client.ErrInvalidArgument):
		return errors.Wrap(err, errors.CodeInvalidParam, op)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(err, errors.ErrCodeTimeout, op)
	default:
		return errors.Wrap(err, errors.ErrCodeBackendUnavailable, op)
	}
}
