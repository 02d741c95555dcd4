package guardkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Health performs a health check of the backing store, including
// latency and connection pool statistics when the handle is a full
// dbkit instance.
func (s *Service) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}
	return dbkit.HealthStatus{
		Healthy: s.IsHealthy(ctx),
		Error:   "limited health check - not a dbkit instance",
	}
}

// IsHealthy reports whether the backing store is reachable. A false
// result means permission-gated routes are about to fail closed.
func (s *Service) IsHealthy(ctx context.Context) bool {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return s.Ping(ctx) == nil
}

// Ping performs a basic connectivity test against the backing store.
func (s *Service) Ping(ctx context.Context) error {
	var result int
	return s.db.NewSelect().Model((*struct{})(nil)).ColumnExpr("1").Limit(1).Scan(ctx, &result)
}
