//go:build integration
// +build integration

package test

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/authclient"
	"github.com/MrEthical07/goSession/internal/devauth"
	"github.com/MrEthical07/goSession/restclient"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// redisMode is one Redis backend the suite runs against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes always includes miniredis. A standalone server is added when
// REDIS_ADDR is set and a sentinel-managed one when REDIS_SENTINEL_ADDRS is
// set. Cluster mode is not supported: a namespace's keys span hash slots.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{{
		name: "miniredis",
		setup: func(t *testing.T) (redis.UniversalClient, func()) {
			t.Helper()
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("miniredis: %v", err)
			}
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			return rdb, func() { _ = rdb.Close(); mr.Close() }
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ping(t, rdb, addr)
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}

	if addrs := os.Getenv("REDIS_SENTINEL_ADDRS"); addrs != "" {
		master := os.Getenv("REDIS_SENTINEL_MASTER")
		if master == "" {
			master = "mymaster"
		}
		modes = append(modes, redisMode{
			name: "sentinel",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:    master,
					SentinelAddrs: strings.Split(addrs, ","),
				})
				ping(t, rdb, addrs)
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}
	return modes
}

func ping(t *testing.T, rdb redis.UniversalClient, addr string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("cannot connect to Redis at %s: %v", addr, err)
	}
}

// stack is a manager wired to a development endpoint over real HTTP.
type stack struct {
	manager *goSession.Manager
	api     *restclient.Client
	dev     *devauth.Server
	events  *goSession.ChannelNavigator
}

// newStack namespaces keys by test name so real servers can be shared.
func newStack(t *testing.T, rdb redis.UniversalClient, mutate func(*goSession.Config)) *stack {
	t.Helper()
	dev, err := devauth.New(devauth.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("devauth: %v", err)
	}
	ts := httptest.NewServer(dev)
	t.Cleanup(ts.Close)

	auth, err := authclient.New(ts.URL)
	if err != nil {
		t.Fatalf("authclient: %v", err)
	}
	cfg := goSession.DefaultConfig()
	cfg.Redis.Prefix = "it"
	cfg.Redis.DeviceID = deviceID(t.Name())
	if mutate != nil {
		mutate(&cfg)
	}

	events := goSession.NewChannelNavigator(16)
	m, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuthenticator(auth).
		WithNavigator(events).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() {
		m.Logout(context.Background())
		m.Close()
	})

	api, err := restclient.New(ts.URL, m)
	if err != nil {
		t.Fatalf("restclient: %v", err)
	}
	return &stack{manager: m, api: api, dev: dev, events: events}
}

func deviceID(testName string) string {
	return strings.NewReplacer("/", "-", " ", "_", ":", "_").Replace(testName)
}
