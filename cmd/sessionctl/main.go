// Command sessionctl drives a session manager from the terminal: log in,
// inspect the resolved session, call protected endpoints and log out.
//
// Without GOSESSION_REDIS_ADDR the stores live in an in-process miniredis and
// without GOSESSION_AUTH_URL a development endpoint with the demo accounts is
// started, so `sessionctl demo` works with no infrastructure at all.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"os/signal"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/authclient"
	"github.com/MrEthical07/goSession/internal/devauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const usage = `usage: sessionctl [-env file] <command> [args]

commands:
  login [-u principal] [-p secret]      authenticate and persist the session
  register -name n -email e [-p secret] create an account and persist the session
  status                                print the resolved session
  refresh                               re-issue the credential with a new expiry
  call <path>                           GET a protected API path with the session
  logout                                end the session
  metrics                               print counters in Prometheus format
  demo                                  run login, call, 401 and logout in-process
`

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sessionctl:", err)
		os.Exit(1)
	}
}

// env is everything a command needs; close releases in-process backends.
type env struct {
	manager *goSession.Manager
	apiURL  string
	cfg     *cliConfig
	events  *goSession.ChannelNavigator
	close   func()
}

func setup(cfg *cliConfig, stderr io.Writer) (*env, error) {
	var cleanups []func()
	closeAll := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	authURL := cfg.AuthURL
	apiURL := cfg.APIURL
	if authURL == "" {
		srv, err := devauth.New()
		if err != nil {
			return nil, err
		}
		ts := httptest.NewServer(srv)
		cleanups = append(cleanups, ts.Close)
		authURL, apiURL = ts.URL, ts.URL
		fmt.Fprintf(stderr, "using development endpoint at %s\n", ts.URL)
	}

	addr := cfg.RedisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		cleanups = append(cleanups, mr.Close)
		addr = mr.Addr()
		fmt.Fprintf(stderr, "using miniredis at %s\n", addr)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.RedisPassword,
	})
	cleanups = append(cleanups, func() { _ = client.Close() })

	auth, err := authclient.New(authURL)
	if err != nil {
		closeAll()
		return nil, err
	}

	sessionCfg := goSession.DefaultConfig()
	sessionCfg.Credential.TTL = cfg.credentialTTL()
	sessionCfg.Redis.Prefix = cfg.Prefix
	sessionCfg.Redis.DeviceID = cfg.DeviceID
	sessionCfg.Resolver.CrossAccountEnrichment = cfg.CrossAccount
	sessionCfg.Metrics.EnableLatencyHistograms = true

	events := goSession.NewChannelNavigator(4)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	m, err := goSession.New().
		WithConfig(sessionCfg).
		WithRedis(client).
		WithAuthenticator(auth).
		WithNavigator(events).
		WithLogger(goSession.NewSlogLogger(logger)).
		WithAuditSink(goSession.NewLogSink(goSession.NewSlogLogger(logger))).
		Build()
	if err != nil {
		closeAll()
		return nil, err
	}
	cleanups = append(cleanups, m.Close)

	return &env{manager: m, apiURL: apiURL, cfg: cfg, events: events, close: closeAll}, nil
}

func run(ctx context.Context, cfg *cliConfig, args []string, stdin io.Reader, stdout io.Writer) error {
	e, err := setup(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	in := newConsole(stdin, stdout)
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return cmdLogin(ctx, e, rest, in, stdout)
	case "register":
		return cmdRegister(ctx, e, rest, in, stdout)
	case "status":
		return cmdStatus(ctx, e, stdout)
	case "refresh":
		return cmdRefresh(ctx, e, stdout)
	case "call":
		return cmdCall(ctx, e, rest, stdout)
	case "logout":
		e.manager.Logout(ctx)
		fmt.Fprintln(stdout, "logged out")
		return nil
	case "metrics":
		return cmdMetrics(e, stdout)
	case "demo":
		return cmdDemo(ctx, e, stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn
	}
	return level
}

var errFailed = errors.New("operation failed")
