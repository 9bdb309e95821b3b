package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/config"
	"github.com/openlob/matchcore/internal/kline"
	"github.com/openlob/matchcore/internal/logging"
	"github.com/openlob/matchcore/internal/marketdata"
	"github.com/openlob/matchcore/internal/matching"
	"github.com/openlob/matchcore/internal/persistence"
	"github.com/openlob/matchcore/internal/producer"
	"github.com/openlob/matchcore/internal/runtime"
	"github.com/openlob/matchcore/internal/transport"
)

const (
	appName    = "matchcore"
	appVersion = "1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var err error
	switch os.Args[1] {
	case "match":
		err = runMatch(ctx)
	case "persis":
		err = runPersis(ctx)
	case "order":
		err = runOrder(ctx)
	case "heal":
		err = runHeal(ctx)
	case "kline":
		err = runKline(ctx)
	case "version":
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("unknown role: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("%s v%s\n", appName, appVersion)
	fmt.Printf("Usage: %s <role> [options]\n\n", os.Args[0])
	fmt.Println("Roles:")
	fmt.Println("  match   - Run the matching engine core")
	fmt.Println("  persis  - Run the persistence consumer")
	fmt.Println("  order   - Run the order producer")
	fmt.Println("  heal    - Run the market-data fanout")
	fmt.Println("  kline   - Run the kline/SMA aggregator")
	fmt.Println("  version - Show version information")
}

func newLogger(role string) (*zap.Logger, error) {
	return logging.New(logging.Options{Component: fmt.Sprintf("matchcore-%s", role)})
}

func loadConfig() (*config.Config, error) {
	path := "config.json"
	if len(os.Args) > 2 {
		path = os.Args[2]
	}
	return config.Load(path)
}

// runMatch binds the three ZeroMQ channels and runs the matching core's
// receive/match/emit/publish loop until shutdown or a fatal invariant
// violation.
func runMatch(ctx context.Context) error {
	logger, err := newLogger("match")
	if err != nil {
		return err
	}
	defer logger.Sync()

	orderSock, err := transport.BindPull(ctx, transport.OrdersAddr)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	defer orderSock.Close()

	eventSock, err := transport.BindPush(ctx, transport.EventsAddr)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	defer eventSock.Close()

	snapSock, err := transport.BindPub(ctx, transport.SnapshotsAddr)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	defer snapSock.Close()

	metrics := matching.NewMetrics(prometheus.DefaultRegisterer)
	engine := matching.NewEngine(logger, metrics)

	if err := runtime.RunMatchLoop(ctx, logger, engine, orderSock, eventSock, snapSock); err != nil {
		return fmt.Errorf("match: %w", err)
	}
	return nil
}

// runPersis applies TRADE and UNMATCHED_ORDER envelopes to the
// relational store.
func runPersis(ctx context.Context) error {
	logger, err := newLogger("persis")
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("persis: %w", err)
	}

	pool, err := persistence.Open(cfg.Database, 8, logger)
	if err != nil {
		return fmt.Errorf("persis: %w", err)
	}
	defer pool.Close()

	if err := persistence.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("persis: %w", err)
	}

	consumer, err := persistence.NewConsumer(pool, logger)
	if err != nil {
		return fmt.Errorf("persis: %w", err)
	}
	defer consumer.Close()

	sock, err := transport.DialPull(ctx, transport.EventsDialAddr)
	if err != nil {
		return fmt.Errorf("persis: %w", err)
	}
	defer sock.Close()

	return consumer.Run(ctx, transport.SocketReceiver{Sock: sock})
}

// runOrder replays resting orders from the store, then generates a
// synthetic order stream into the engine's orders-in channel.
func runOrder(ctx context.Context) error {
	logger, err := newLogger("order")
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("order: %w", err)
	}

	pool, err := persistence.Open(cfg.Database, 4, logger)
	if err != nil {
		return fmt.Errorf("order: %w", err)
	}
	defer pool.Close()

	if err := persistence.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("order: %w", err)
	}

	sock, err := transport.DialPush(ctx, transport.OrdersDialAddr)
	if err != nil {
		return fmt.Errorf("order: %w", err)
	}
	defer sock.Close()
	sender := transport.SocketSender{Sock: sock}

	p := producer.New(pool, logger, producer.DefaultGenerationConfig, time.Now().UnixNano())

	resting, err := p.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("order: %w", err)
	}
	if err := p.ReplayInto(ctx, sender, resting); err != nil {
		return fmt.Errorf("order: %w", err)
	}

	return p.Run(ctx, sender)
}

// runHeal serves the engine's book snapshots over HTTP and WebSocket.
// The role name ("heal") is carried over from the source CLI's market
// data / health endpoint naming, kept for compatibility with the wire
// contract described in SPEC_FULL.md §6.
func runHeal(ctx context.Context) error {
	logger, err := newLogger("heal")
	if err != nil {
		return err
	}
	defer logger.Sync()

	metrics := marketdata.NewMetrics(prometheus.DefaultRegisterer)
	fanout := marketdata.NewFanout(logger, metrics)
	rateLimit := marketdata.NewRateLimitMiddleware(600, logger, metrics)

	sock, err := transport.DialSub(ctx, transport.SnapshotsDialAddr)
	if err != nil {
		return fmt.Errorf("heal: %w", err)
	}
	defer sock.Close()

	go func() {
		if ingestErr := fanout.Ingest(ctx, transport.SocketReceiver{Sock: sock}); ingestErr != nil {
			logger.Error("snapshot ingest stopped", zap.Error(ingestErr))
		}
	}()

	router := fanout.Router(rateLimit)
	srv := &http.Server{Addr: ":8081", Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("heal: %w", err)
	}
	return nil
}

// runKline runs the read-only kline/SMA aggregator.
func runKline(ctx context.Context) error {
	logger, err := newLogger("kline")
	if err != nil {
		return err
	}
	defer logger.Sync()

	sock, err := transport.DialSub(ctx, transport.SnapshotsDialAddr)
	if err != nil {
		return fmt.Errorf("kline: %w", err)
	}
	defer sock.Close()

	agg := kline.New(logger)
	return agg.Run(ctx, transport.SocketReceiver{Sock: sock})
}
