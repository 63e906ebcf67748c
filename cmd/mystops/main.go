package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mystops/internal/arrivals"
	"mystops/internal/config"
	"mystops/internal/db"
	"mystops/internal/metrics"
	"mystops/internal/publisher"
	"mystops/internal/stops"
	"mystops/internal/trimet"
)

const usage = `usage: mystops <command> [flags]

commands:
  get-stops   fetch the TriMet stop directory and write stops.json and routes.json
  migrate     create the database and schema
  load        load stops, routes and stop routes into the database
  arrivals    print the arrival board for one or more stop IDs
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.BatchSize)
		srv := mcol.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "get-stops":
		err = runGetStops(ctx, cfg, mcol, args)
	case "migrate":
		err = runMigrate(ctx, cfg, args)
	case "load":
		err = runLoad(ctx, cfg, mcol, args)
	case "arrivals":
		err = runArrivals(ctx, cfg, mcol, args)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func newClient(cfg *config.Config, mcol *metrics.Collector) (*trimet.Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return trimet.NewClient(cfg.BaseURL, cfg.APIKey, cfg.HTTPTimeout, requestMetrics(mcol)), nil
}

func runGetStops(ctx context.Context, cfg *config.Config, mcol *metrics.Collector, args []string) error {
	fs := flag.NewFlagSet("get-stops", flag.ExitOnError)
	out := fs.String("out", cfg.DataDir, "output directory")
	overwrite := fs.Bool("overwrite", false, "refetch the raw stop directory even when cached")
	_ = fs.Parse(args)

	client, err := newClient(cfg, mcol)
	if err != nil {
		return err
	}
	_, err = stops.Sync(ctx, client, stops.SyncOptions{
		Dir:        *out,
		Overwrite:  *overwrite,
		Center:     cfg.StopsCenter,
		RadiusFeet: cfg.StopsRadiusFeet,
	})
	return err
}

func runMigrate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	createDB := fs.Bool("create-db", true, "create the database when it does not exist")
	_ = fs.Parse(args)

	if *createDB {
		if err := db.EnsureDatabase(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
	}
	sqlDB, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		return err
	}
	log.Printf("schema ready")
	return nil
}

func runLoad(ctx context.Context, cfg *config.Config, mcol *metrics.Collector, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	dir := fs.String("dir", cfg.DataDir, "directory holding stops.json and routes.json")
	clearRows := fs.Bool("clear", false, "delete existing rows before loading")
	onlyStops := fs.Bool("stops", false, "load stops")
	onlyRoutes := fs.Bool("routes", false, "load routes")
	onlyStopRoutes := fs.Bool("stop-routes", false, "load stop routes")
	_ = fs.Parse(args)

	all := !*onlyStops && !*onlyRoutes && !*onlyStopRoutes

	stopList, err := stops.ReadStops(filepath.Join(*dir, stops.StopsFile))
	if err != nil {
		return err
	}

	sqlDB, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	loader := db.NewLoader(sqlDB, cfg.BatchSize, loadMetrics(mcol))

	if all || *onlyStops {
		n, err := loader.LoadStops(ctx, stopList, *clearRows)
		if err != nil {
			return err
		}
		log.Printf("loaded %d stops", n)
	}
	if all || *onlyRoutes {
		routes, err := stops.ReadRoutes(filepath.Join(*dir, stops.RoutesFile))
		if err != nil {
			return err
		}
		n, err := loader.LoadRoutes(ctx, routes, *clearRows)
		if err != nil {
			return err
		}
		log.Printf("loaded %d routes", n)
	}
	if all || *onlyStopRoutes {
		res, err := loader.LoadStopRoutes(ctx, stops.Associations(stopList), *clearRows)
		if err != nil {
			return err
		}
		log.Printf("loaded %d stop routes, skipped %d", res.Loaded, len(res.Missing))
	}
	return nil
}

func runArrivals(ctx context.Context, cfg *config.Config, mcol *metrics.Collector, args []string) error {
	fs := flag.NewFlagSet("arrivals", flag.ExitOnError)
	routesFlag := fs.String("routes", "", "comma-separated route IDs to keep")
	asJSON := fs.Bool("json", false, "print the board as JSON")
	publish := fs.Bool("publish", false, "publish the board to NATS")
	_ = fs.Parse(args)

	stopIDs, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}
	if len(stopIDs) == 0 {
		return fmt.Errorf("at least one stop ID is required")
	}
	var routeIDs []int
	if *routesFlag != "" {
		if routeIDs, err = parseIDs(strings.Split(*routesFlag, ",")); err != nil {
			return err
		}
	}

	client, err := newClient(cfg, mcol)
	if err != nil {
		return err
	}
	svc := arrivals.NewService(client, arrivals.NewNormalizer(cfg.Clock), boardMetrics(mcol))

	board, err := svc.Board(ctx, stopIDs, routeIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", arrivals.ErrorKind(err), err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(board); err != nil {
			return err
		}
	} else {
		renderBoard(os.Stdout, board)
	}

	if *publish {
		if cfg.NATSURL == "" {
			return fmt.Errorf("NATS_URL must be set to publish")
		}
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, cfg.LogNATSSubjects, publisherMetrics(mcol))
		if err != nil {
			return fmt.Errorf("nats error: %w", err)
		}
		defer pub.Close()
		if err := pub.PublishBoard(board); err != nil {
			return err
		}
		log.Printf("published %d stops", len(board.Stops))
	}
	return nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.Ping(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return sqlDB, nil
}

func parseIDs(values []string) ([]int, error) {
	ids := make([]int, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.Atoi(v)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid ID %q", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// The metrics adapters return untyped nil when metrics are disabled so
// callers can keep their nil checks.

func requestMetrics(c *metrics.Collector) trimet.RequestMetrics {
	if c == nil {
		return nil
	}
	return c
}

func boardMetrics(c *metrics.Collector) arrivals.Metrics {
	if c == nil {
		return nil
	}
	return c
}

func loadMetrics(c *metrics.Collector) db.LoadMetrics {
	if c == nil {
		return nil
	}
	return c
}

func publisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return c
}
