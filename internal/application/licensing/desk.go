package licensing

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/RTO-Desk/internal/domain/license"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RTO-Desk/pkg/errors"
)

// ErrStaleView is returned by View when a view for a later request has
// already been delivered.
var ErrStaleView = errors.New(errors.ErrCodeStaleView, "a newer desk view was already delivered")

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// DeskQuery selects one desk view.  A zero Now means the service clock.
type DeskQuery struct {
	Page      int
	Limit     int
	Search    string
	Selection license.FilterSelection
	Now       time.Time
}

// DeskRow is one application as the desk renders it.  Dates are formatted
// DD-MM-YYYY, or "-" when unknown.
type DeskRow struct {
	Application        license.LicenseApplication `json:"application"`
	EligibleForUpgrade bool                       `json:"eligibleForUpgrade"`
	ExpiringWithin     map[int]bool               `json:"expiringWithin"`
	DaysSinceIssue     *int                       `json:"daysSinceIssue,omitempty"`
	DaysUntilExpiry    *int                       `json:"daysUntilExpiry,omitempty"`
	PaymentStatus      license.PaymentStatus      `json:"paymentStatus"`
	LearnerIssueDate   string                     `json:"learnerIssueDate"`
	LearnerExpiryDate  string                     `json:"learnerExpiryDate"`
	FullIssueDate      string                     `json:"fullIssueDate"`
	FullExpiryDate     string                     `json:"fullExpiryDate"`
}

// Tiles are the dataset-wide counts.  When Available is false the
// statistics could not be fetched and the counts are zero.
type Tiles struct {
	Available            bool    `json:"available"`
	TotalApplications    int64   `json:"totalApplications"`
	LLExpiring           int64   `json:"llExpiring"`
	LLEligibleForDL      int64   `json:"llEligibleForDL"`
	PendingPaymentCount  int64   `json:"pendingPaymentCount"`
	PendingPaymentAmount float64 `json:"pendingPaymentAmount"`
	Error                string  `json:"error,omitempty"`
}

// DeskView is the assembled desk.  Rows and Tiles are independent: Rows
// reflect one page after reconciliation, Tiles the whole dataset.
type DeskView struct {
	Rows        []DeskRow               `json:"rows"`
	Filter      license.FilterSelection `json:"filter"`
	FilterLabel string                  `json:"filterLabel"`
	Tiles       Tiles                   `json:"tiles"`
	Pagination  license.Pagination      `json:"pagination"`
	Today       string                  `json:"today"`
}

// DeskService is the application service behind the desk.
type DeskService interface {
	// View fetches a page and the statistics concurrently and reconciles the
	// page against the query's filter selection.
	View(ctx context.Context, q DeskQuery) (*DeskView, error)

	// Application returns a single application classified as of now.
	Application(ctx context.Context, id string, now time.Time) (*DeskRow, error)

	// Statistics returns the tile counts.
	Statistics(ctx context.Context) (*license.Statistics, error)
}

// DeskServiceConfig holds tunables.
type DeskServiceConfig struct {
	Location        *time.Location
	DefaultPageSize int
	MaxPageSize     int
	ExpiryWindows   []int
}

func (c *DeskServiceConfig) applyDefaults() {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 10
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if len(c.ExpiryWindows) == 0 {
		c.ExpiryWindows = []int{license.ExpiryWindowShort, license.ExpiryWindowLong}
	}
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type deskServiceImpl struct {
	gateway RecordsGateway
	stats   StatisticsSource
	cfg     DeskServiceConfig
	metrics *prom.AppMetrics
	logger  logging.Logger
	now     func() time.Time

	mu        sync.Mutex
	issued    uint64
	delivered uint64
}

// DeskOption customises a DeskService.
type DeskOption func(*deskServiceImpl)

// WithMetrics records view metrics.
func WithMetrics(m *prom.AppMetrics) DeskOption {
	return func(s *deskServiceImpl) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DeskOption {
	return func(s *deskServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDeskService constructs a DeskService.
func NewDeskService(gateway RecordsGateway, stats StatisticsSource, cfg DeskServiceConfig, logger logging.Logger, opts ...DeskOption) DeskService {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &deskServiceImpl{
		gateway: gateway,
		stats:   stats,
		cfg:     cfg,
		logger:  logger.Named("desk"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *deskServiceImpl) View(ctx context.Context, q DeskQuery) (*DeskView, error) {
	start := time.Now()
	ticket := s.nextTicket()

	view, err := s.assemble(ctx, q)
	filter := q.Selection.Special.String()

	if err != nil {
		s.recordView(filter, "error", 0, start)
		return nil, err
	}
	if !s.deliver(ticket) {
		s.recordView(filter, "stale", 0, start)
		s.logger.Debug("discarding stale view", logging.Int64("ticket", int64(ticket)))
		return nil, ErrStaleView
	}
	s.recordView(filter, "ok", len(view.Rows), start)
	return view, nil
}

func (s *deskServiceImpl) assemble(ctx context.Context, q DeskQuery) (*DeskView, error) {
	pq, err := s.pageQuery(q)
	if err != nil {
		return nil, err
	}

	now := q.Now
	if now.IsZero() {
		now = s.now()
	}
	today := license.Today(now, s.cfg.Location)

	var (
		page     *license.Page
		stats    *license.Statistics
		statsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.gateway.ListPage(gctx, pq)
		if err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "failed to fetch application page")
		}
		page = p
		return nil
	})
	if s.stats != nil {
		g.Go(func() error {
			// Tiles degrade on failure; never cancel the page fetch.
			stats, statsErr = s.stats.Statistics(gctx)
			return nil
		})
	} else {
		statsErr = errors.New(errors.ErrCodeStatisticsUnavailable, "no statistics source configured")
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if page == nil {
		page = &license.Page{}
	}

	sel := q.Selection
	if sel.LicenseClass == "" {
		sel.LicenseClass = license.LicenseClassAll
	}
	if sel.PaymentStatus == "" {
		sel.PaymentStatus = license.PaymentAll
	}
	apps := license.Reconcile(page.Records, sel, today)

	rows := make([]DeskRow, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, s.row(app, today))
	}
	s.logger.Debug("page reconciled",
		logging.Date("today", today),
		logging.String("filter", sel.Special.String()),
		logging.Int("fetched", len(page.Records)),
		logging.Int("visible", len(rows)),
	)

	return &DeskView{
		Rows:        rows,
		Filter:      sel,
		FilterLabel: sel.Label(),
		Tiles:       s.tiles(stats, statsErr, page.Pagination.TotalItems),
		Pagination:  page.Pagination,
		Today:       today.Format(dateLayout),
	}, nil
}

const dateLayout = "2006-01-02"

func (s *deskServiceImpl) pageQuery(q DeskQuery) (license.PageQuery, error) {
	if q.Page < 0 {
		return license.PageQuery{}, errors.InvalidParam("page must not be negative")
	}
	if q.Limit < 0 || q.Limit > s.cfg.MaxPageSize {
		return license.PageQuery{}, errors.InvalidParam("limit out of range").WithDetail("max " + strconv.Itoa(s.cfg.MaxPageSize))
	}
	pq := license.PageQuery{
		Page:          q.Page,
		Limit:         q.Limit,
		Search:        q.Search,
		LicenseClass:  q.Selection.ClassFilter(),
		PaymentStatus: q.Selection.PaymentFilter(),
	}
	if pq.Page == 0 {
		pq.Page = 1
	}
	if pq.Limit == 0 {
		pq.Limit = s.cfg.DefaultPageSize
	}
	return pq, nil
}

func (s *deskServiceImpl) row(app license.LicenseApplication, today time.Time) DeskRow {
	c := license.Classify(app, today)
	r := DeskRow{
		Application:        app,
		EligibleForUpgrade: c.EligibleForUpgrade,
		ExpiringWithin:     make(map[int]bool, len(s.cfg.ExpiryWindows)),
		PaymentStatus:      app.Payment.Status(),
		LearnerIssueDate:   license.FormatDisplayDate(nil),
		LearnerExpiryDate:  license.FormatDisplayDate(nil),
		FullIssueDate:      license.FormatDisplayDate(nil),
		FullExpiryDate:     license.FormatDisplayDate(nil),
	}
	for _, w := range s.cfg.ExpiryWindows {
		r.ExpiringWithin[w] = c.LearnerExpiringWithin(w)
	}
	if d, ok := license.DaysSinceIssue(app, today); ok {
		r.DaysSinceIssue = &d
	}
	if d, ok := license.DaysUntilExpiry(app, today); ok {
		r.DaysUntilExpiry = &d
	}
	if app.Learner != nil {
		r.LearnerIssueDate = license.FormatDisplayDate(app.Learner.IssueDate)
		r.LearnerExpiryDate = license.FormatDisplayDate(app.Learner.ExpiryDate)
	}
	if app.Full != nil {
		r.FullIssueDate = license.FormatDisplayDate(app.Full.IssueDate)
		r.FullExpiryDate = license.FormatDisplayDate(app.Full.ExpiryDate)
	}
	return r
}

// tiles builds the summary counts.  The statistics endpoint may omit the
// total, in which case the page's totalItems stands in.
func (s *deskServiceImpl) tiles(stats *license.Statistics, err error, totalItems int64) Tiles {
	if err != nil || stats == nil {
		if err == nil {
			err = errors.New(errors.ErrCodeStatisticsUnavailable, "statistics missing")
		}
		s.logger.Warn("statistics unavailable, rendering without tiles", logging.Err(err))
		if s.metrics != nil {
			s.metrics.StatisticsDegraded.WithLabelValues().Inc()
		}
		return Tiles{Error: err.Error()}
	}
	if s.metrics != nil {
		prom.RecordTiles(s.metrics, stats.LLExpiringCount, stats.LLEligibleForDLCount, stats.PendingPaymentCount, stats.PendingPaymentAmount)
	}
	total := stats.TotalApplications
	if total == 0 {
		total = totalItems
	}
	return Tiles{
		Available:            true,
		TotalApplications:    total,
		LLExpiring:           stats.LLExpiringCount,
		LLEligibleForDL:      stats.LLEligibleForDLCount,
		PendingPaymentCount:  stats.PendingPaymentCount,
		PendingPaymentAmount: stats.PendingPaymentAmount,
	}
}

func (s *deskServiceImpl) Application(ctx context.Context, id string, now time.Time) (*DeskRow, error) {
	if id == "" {
		return nil, errors.InvalidParam("application id is required")
	}
	app, err := s.gateway.GetApplication(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to fetch application")
	}
	if now.IsZero() {
		now = s.now()
	}
	row := s.row(*app, license.Today(now, s.cfg.Location))
	return &row, nil
}

func (s *deskServiceImpl) Statistics(ctx context.Context) (*license.Statistics, error) {
	if s.stats == nil {
		return nil, errors.New(errors.ErrCodeStatisticsUnavailable, "no statistics source configured")
	}
	stats, err := s.stats.Statistics(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStatisticsUnavailable, "failed to fetch statistics")
	}
	return stats, nil
}

// nextTicket and deliver implement "last response wins": a view finishing
// after a newer one was already delivered is stale.
func (s *deskServiceImpl) nextTicket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *deskServiceImpl) deliver(ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket < s.delivered {
		return false
	}
	s.delivered = ticket
	return true
}

func (s *deskServiceImpl) recordView(filter, outcome string, rows int, start time.Time) {
	if s.metrics == nil {
		return
	}
	prom.RecordDeskView(s.metrics, filter, outcome, rows, time.Since(start))
}
