package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/poiesic/studyops/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedAddr returns a loopback address nothing is listening on.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestResult_String(t *testing.T) {
	ok := Result{Service: "Redis", Detail: "ping=PONG"}
	assert.True(t, ok.OK())
	assert.Equal(t, "Redis: OK (ping=PONG)", ok.String())

	fail := Result{Service: "Neo4j", Err: errors.New("connection refused")}
	assert.False(t, fail.OK())
	assert.Equal(t, "Neo4j: FAIL (connection refused)", fail.String())
}

func TestCheckRedis_InvalidURL(t *testing.T) {
	res := CheckRedis(context.Background(), "http://not-redis")
	assert.False(t, res.OK())
	assert.Equal(t, "Redis", res.Service)
	assert.Contains(t, res.String(), "Redis: FAIL (")
}

func TestCheckRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res := CheckRedis(ctx, "redis://"+closedAddr(t)+"/0")
	assert.False(t, res.OK())
}

func TestCheckNeo4j_InvalidURI(t *testing.T) {
	res := CheckNeo4j(context.Background(), config.Neo4j{URI: "bogus://localhost"})
	assert.False(t, res.OK())
	assert.Equal(t, "Neo4j", res.Service)
}

func TestCheckNeo4j_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res := CheckNeo4j(ctx, config.Neo4j{URI: "neo4j://" + closedAddr(t), User: "neo4j", Password: "x"})
	assert.False(t, res.OK())
}

func TestRun_Order(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.URL = "redis://" + closedAddr(t) + "/0"
	cfg.Neo4j.URI = "neo4j://" + closedAddr(t)

	results := Run(context.Background(), cfg, time.Second, nil)
	require.Len(t, results, 2)
	assert.Equal(t, "Redis", results[0].Service)
	assert.Equal(t, "Neo4j", results[1].Service)
	for _, r := range results {
		assert.False(t, r.OK())
	}
}
