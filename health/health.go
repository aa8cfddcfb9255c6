// Package health checks connectivity to the auxiliary services studyops is
// configured with: a Redis cache and a Neo4j graph database.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"

	"github.com/poiesic/studyops/config"
)

// DefaultTimeout bounds each individual check.
const DefaultTimeout = 5 * time.Second

// Result is the outcome of one service check.
type Result struct {
	Service string
	Detail  string // set on success
	Err     error  // set on failure
}

// OK reports whether the service answered.
func (r Result) OK() bool {
	return r.Err == nil
}

// String renders the result as "Service: OK (detail)" or "Service: FAIL (err)".
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: FAIL (%v)", r.Service, r.Err)
	}
	return fmt.Sprintf("%s: OK (%s)", r.Service, r.Detail)
}

// CheckRedis pings the Redis server at url.
func CheckRedis(ctx context.Context, url string) Result {
	res := Result{Service: "Redis"}

	opt, err := redis.ParseURL(url)
	if err != nil {
		res.Err = fmt.Errorf("failed to parse Redis URL: %w", err)
		return res
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		res.Err = err
		return res
	}
	res.Detail = "ping=" + pong
	return res
}

// CheckNeo4j connects to Neo4j and runs a trivial query.
func CheckNeo4j(ctx context.Context, cfg config.Neo4j) Result {
	res := Result{Service: "Neo4j"}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		res.Err = err
		return res
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		res.Err = err
		return res
	}

	result, err := neo4j.ExecuteQuery(ctx, driver, "RETURN 1 AS ok", nil, neo4j.EagerResultTransformer)
	if err != nil {
		res.Err = err
		return res
	}
	if len(result.Records) == 0 {
		res.Err = errors.New("query returned no rows")
		return res
	}
	ok, _ := result.Records[0].Get("ok")
	res.Detail = fmt.Sprintf("RETURN %v", ok)
	return res
}

// Run checks every configured service, each bounded by timeout.
// Results are returned in a fixed order: Redis, then Neo4j.
func Run(ctx context.Context, cfg config.Config, timeout time.Duration, logger *slog.Logger) []Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "health")

	checks := []func(context.Context) Result{
		func(ctx context.Context) Result { return CheckRedis(ctx, cfg.Redis.URL) },
		func(ctx context.Context) Result { return CheckNeo4j(ctx, cfg.Neo4j) },
	}

	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		res := check(checkCtx)
		cancel()

		if res.OK() {
			logger.Debug("service reachable", "service", res.Service, "detail", res.Detail)
		} else {
			logger.Warn("service unreachable", "service", res.Service, "err", res.Err)
		}
		results = append(results, res)
	}
	return results
}
