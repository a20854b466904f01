package tripmetrics

import (
	"context"
	"log/slog"
)

// Fetcher is the read contract of the metrics API.
type Fetcher interface {
	Summary(ctx context.Context, r DateRange) (Summary, error)
	DailyRevenue(ctx context.Context, r DateRange) ([]DailyRevenuePoint, error)
	HourlyTrips(ctx context.Context, r DateRange) ([]HourlyTripsPoint, error)
	TipByPayment(ctx context.Context, r DateRange) ([]TipByPaymentPoint, error)
}

// CachedSource serves metrics through the Redis cache, falling back to the
// upstream Fetcher on a miss or when Redis is unavailable.
type CachedSource struct {
	upstream Fetcher
	cache    *Cache
	logger   *slog.Logger
}

// NewCachedSource wires a Fetcher with a Cache helper.
func NewCachedSource(upstream Fetcher, cache *Cache, logger *slog.Logger) *CachedSource {
	return &CachedSource{upstream: upstream, cache: cache, logger: logger}
}

// Cache exposes the underlying cache for warmup and invalidation jobs.
func (s *CachedSource) Cache() *Cache {
	return s.cache
}

// Summary implements Fetcher.
func (s *CachedSource) Summary(ctx context.Context, r DateRange) (Summary, error) {
	var out Summary
	err := cached(ctx, s, EndpointSummary, r, &out, func(ctx context.Context) (any, error) {
		return s.upstream.Summary(ctx, r)
	})
	return out, err
}

// DailyRevenue implements Fetcher.
func (s *CachedSource) DailyRevenue(ctx context.Context, r DateRange) ([]DailyRevenuePoint, error) {
	var out []DailyRevenuePoint
	err := cached(ctx, s, EndpointDailyRevenue, r, &out, func(ctx context.Context) (any, error) {
		return s.upstream.DailyRevenue(ctx, r)
	})
	return out, err
}

// HourlyTrips implements Fetcher.
func (s *CachedSource) HourlyTrips(ctx context.Context, r DateRange) ([]HourlyTripsPoint, error) {
	var out []HourlyTripsPoint
	err := cached(ctx, s, EndpointHourlyTrips, r, &out, func(ctx context.Context) (any, error) {
		return s.upstream.HourlyTrips(ctx, r)
	})
	return out, err
}

// TipByPayment implements Fetcher.
func (s *CachedSource) TipByPayment(ctx context.Context, r DateRange) ([]TipByPaymentPoint, error) {
	var out []TipByPaymentPoint
	err := cached(ctx, s, EndpointTipByPayment, r, &out, func(ctx context.Context) (any, error) {
		return s.upstream.TipByPayment(ctx, r)
	})
	return out, err
}

// Warm fetches every endpoint for r so that subsequent reads hit the cache.
func (s *CachedSource) Warm(ctx context.Context, r DateRange) error {
	if _, err := s.Summary(ctx, r); err != nil {
		return err
	}
	if _, err := s.DailyRevenue(ctx, r); err != nil {
		return err
	}
	if _, err := s.HourlyTrips(ctx, r); err != nil {
		return err
	}
	_, err := s.TipByPayment(ctx, r)
	return err
}

func cached(ctx context.Context, s *CachedSource, e Endpoint, r DateRange, dest any, loader func(context.Context) (any, error)) error {
	if !s.cache.Enabled() {
		return load(ctx, dest, loader)
	}
	key, err := s.cache.BuildKey(ctx, cacheKey(e, r))
	if err != nil {
		s.warn("metrics cache key", e, err)
		return load(ctx, dest, loader)
	}
	var (
		loaded    bool
		value     any
		loaderErr error
	)
	err = s.cache.Fetch(ctx, key, dest, func(ctx context.Context) (any, error) {
		loaded = true
		value, loaderErr = loader(ctx)
		return value, loaderErr
	})
	switch {
	case err == nil:
		return nil
	case loaderErr != nil:
		return loaderErr
	case loaded:
		s.warn("metrics cache store", e, err)
		return assign(value, dest)
	default:
		s.warn("metrics cache lookup", e, err)
		return load(ctx, dest, loader)
	}
}

func (s *CachedSource) warn(msg string, e Endpoint, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.String("endpoint", string(e)), slog.Any("error", err))
	}
}
