// Package licensing assembles the driving licence desk view: one page of
// applications reconciled against the active filter, plus the dataset-wide
// tiles.
package licensing

import (
	"context"
	"time"

	"github.com/turtacn/RTO-Desk/internal/domain/license"
)

// RecordsGateway reads applications from the records backend.
type RecordsGateway interface {
	ListPage(ctx context.Context, q license.PageQuery) (*license.Page, error)
	GetApplication(ctx context.Context, id string) (*license.LicenseApplication, error)
}

// StatisticsSource provides the dataset-wide tile counts.
type StatisticsSource interface {
	Statistics(ctx context.Context) (*license.Statistics, error)
}

// CachePort is the read-through cache used by CachedStatisticsSource.
type CachePort interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	Delete(ctx context.Context, keys ...string) error
}
