package config

import (
	"io"
	"log/slog"

	"github.com/roach88/efsmcheck/internal/smt"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Checker builds the SMT checker described by the solver and cache
// sections. It returns a nil checker when no solver URL is configured. The
// closer releases the cache connection and is never nil.
func (c *Config) Checker(logger *slog.Logger, opts ...smt.CheckerOption) (*smt.Checker, io.Closer) {
	if c.Solver.URL == "" {
		return nil, nopCloser{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	solver := smt.NewHTTPSolver(c.Solver.URL, smt.WithTimeout(c.Solver.Timeout))
	base := []smt.CheckerOption{
		smt.WithPolicy(smt.FallbackPolicy(c.Solver.Policy)),
		smt.WithConcurrency(c.Solver.Concurrency),
		smt.WithLogger(logger),
	}

	var closer io.Closer = nopCloser{}
	switch c.Cache.Backend {
	case CacheMemory:
		base = append(base, smt.WithCache(smt.NewMemoryCache()))
	case CacheRedis:
		redis := smt.NewRedisCache(c.Cache.Addr, c.Cache.Password, c.Cache.DB,
			smt.WithTTL(c.Cache.TTL), smt.WithPrefix(c.Cache.Prefix))
		base = append(base, smt.WithCache(redis))
		closer = redis
		logger.Debug("verdict cache", "backend", CacheRedis, "addr", c.Cache.Addr)
	}

	return smt.NewChecker(solver, append(base, opts...)...), closer
}
