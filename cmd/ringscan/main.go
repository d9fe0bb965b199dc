package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	handler "github.com/samirrijal/curbside/internal/adapters/http"
	"github.com/samirrijal/curbside/internal/bootstrap"
	"github.com/samirrijal/curbside/internal/core/domain"
	"github.com/samirrijal/curbside/internal/pkg/config"
	"github.com/samirrijal/curbside/internal/pkg/logging"
	"github.com/samirrijal/curbside/internal/workflows"
)

type options struct {
	provider string
	snapshot string
	verbose  bool

	lat, lon float64
	format   string

	points []string
	batch  int
	wait   bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var o options

	rootCmd := &cobra.Command{
		Use:           "ringscan",
		Short:         "Find where roads cross rings around a point",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if o.verbose {
				level = "debug"
			}
			slog.SetDefault(logging.New(os.Stderr, level, "text", ""))
		},
	}
	rootCmd.PersistentFlags().StringVar(&o.provider, "provider", "", "Road provider: overpass, postgis or roadindex (default from config)")
	rootCmd.PersistentFlags().StringVar(&o.snapshot, "snapshot", "", "Overpass JSON snapshot for the roadindex provider")
	rootCmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Verbose output")

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Print the crossing points around a coordinate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), out, &o)
		},
	}
	queryCmd.Flags().Float64Var(&o.lat, "lat", 0, "Latitude")
	queryCmd.Flags().Float64Var(&o.lon, "lon", 0, "Longitude")
	queryCmd.Flags().StringVarP(&o.format, "format", "o", "json", "Output format: json, rings or kml")
	_ = queryCmd.MarkFlagRequired("lat")
	_ = queryCmd.MarkFlagRequired("lon")

	warmCmd := &cobra.Command{
		Use:   "warm",
		Short: "Start the road cache warm-up workflow",
		Long:  `Start WarmRoadCacheWorkflow on the configured Temporal task queue for each --point lat,lon.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarm(cmd.Context(), out, &o)
		},
	}
	warmCmd.Flags().StringArrayVarP(&o.points, "point", "p", nil, "Point as lat,lon (repeatable)")
	warmCmd.Flags().IntVar(&o.batch, "batch", 0, "Points fetched at once (default 4)")
	warmCmd.Flags().BoolVar(&o.wait, "wait", false, "Wait for the workflow result")
	_ = warmCmd.MarkFlagRequired("point")

	rootCmd.AddCommand(queryCmd, warmCmd)
	return rootCmd
}

func loadConfig(o *options) (*config.Config, error) {
	cfg, err := config.Load("curbside-ringscan")
	if err != nil {
		return nil, err
	}
	if o.provider != "" {
		cfg.Provider.Kind = o.provider
	}
	if o.snapshot != "" {
		cfg.Provider.SnapshotPath = o.snapshot
	}
	return cfg, nil
}

func runQuery(ctx context.Context, out io.Writer, o *options) error {
	switch o.format {
	case "json", "rings", "kml":
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	backends, err := bootstrap.Open(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer backends.Close()

	svc, err := backends.CrossingService(cfg)
	if err != nil {
		return err
	}
	res, err := svc.FindCrossings(ctx, domain.GeoPoint{Lat: o.lat, Lon: o.lon})
	if err != nil {
		return err
	}

	switch o.format {
	case "kml":
		return handler.WriteKML(out, res)
	case "rings":
		return writeJSON(out, handler.NewRingsView(res))
	default:
		return writeJSON(out, res.Response())
	}
}

func runWarm(ctx context.Context, out io.Writer, o *options) error {
	points := make([]domain.GeoPoint, 0, len(o.points))
	for _, s := range o.points {
		p, err := parsePoint(s)
		if err != nil {
			return err
		}
		points = append(points, p)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("warm-road-cache-%d", time.Now().UnixNano()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.WarmRoadCacheWorkflow, workflows.WarmInput{Points: points, BatchSize: o.batch})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	fmt.Fprintf(out, "started workflow %s (run %s) for %d points\n", run.GetID(), run.GetRunID(), len(points))

	if !o.wait {
		return nil
	}
	var result workflows.WarmResult
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	return writeJSON(out, result)
}

// parsePoint parses "lat,lon".
func parsePoint(s string) (domain.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("point %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("point %q: bad latitude: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("point %q: bad longitude: %w", s, err)
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.GeoPoint{}, fmt.Errorf("point %q: %w", s, domain.ErrInvalidCoordinate)
	}
	return p, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
