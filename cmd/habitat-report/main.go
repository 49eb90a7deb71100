// Command habitat-report opens the configured store and prints the habitat
// management summary. Settings come from MNYAMA_* environment variables.
// With -metrics (or MNYAMA_METRICS_ENABLED) the service's Prometheus metrics
// are written to stderr in text exposition format after the summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"mnyama/internal/core"
)

const (
	formatJSON = "json"
	formatText = "text"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("habitat-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", formatJSON, "output format: json or text")
	metrics := fs.Bool("metrics", false, "write Prometheus metrics to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *format != formatJSON && *format != formatText {
		_, _ = fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}

	cfg, err := core.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *metrics {
		cfg.MetricsEnabled = true
	}
	zl, err := core.NewProductionLogger(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = zl.Sync() }()

	svc, err := core.Open(ctx, cfg, core.WithLogger(core.NewZapLogger(zl)))
	if err != nil {
		zl.Sugar().Errorw("open service", "error", err)
		return 1
	}
	defer func() { _ = svc.Close() }()

	summary, err := svc.Reporter().Summary(ctx)
	if err != nil {
		zl.Sugar().Errorw("build summary", "error", err)
		return 1
	}
	if *format == formatText {
		err = writeText(stdout, summary)
	} else {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(summary)
	}
	if err != nil {
		zl.Sugar().Errorw("write summary", "error", err)
		return 1
	}
	if cfg.MetricsEnabled {
		if err := writeMetrics(stderr, prometheus.DefaultGatherer, cfg.MetricsNamespace); err != nil {
			zl.Sugar().Errorw("write metrics", "error", err)
			return 1
		}
	}
	return 0
}

// writeMetrics dumps the metric families under namespace.
func writeMetrics(w io.Writer, g prometheus.Gatherer, namespace string) error {
	if namespace == "" {
		namespace = core.DefaultMetricsNamespace
	}
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

var classificationLabels = map[core.Classification]string{
	core.ClassificationEmpty:     "EMPTY",
	core.ClassificationAvailable: "AVAILABLE",
	core.ClassificationNearFull:  "NEAR FULL",
	core.ClassificationFull:      "FULL",
}

func writeText(w io.Writer, s core.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Habitats: %d  Creatures: %d  Assigned: %d  Unassigned: %d\n\n",
		s.TotalHabitats, s.TotalCreatures, s.AssignedCreatures, s.UnassignedCreatures)

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HABITAT\tBIOME\tOCCUPIED\tPCT\tSTATUS")
	for _, h := range s.Habitats {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.0f%%\t%s\n", h.Name, h.Biome, h.Occupied, h.Capacity, h.Percent, classificationLabels[h.Classification])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.FullHabitats) > 0 {
		b.WriteString("\nFull habitats:\n")
		for _, h := range s.FullHabitats {
			fmt.Fprintf(&b, "  %s: %d creatures, %d/%d\n", h.Name, len(h.OccupantIDs), h.Occupied, h.Capacity)
		}
	}
	if len(s.EmptyHabitats) > 0 {
		b.WriteString("\nEmpty habitats:\n")
		for _, h := range s.EmptyHabitats {
			fmt.Fprintf(&b, "  %s (%s): %d free\n", h.Name, h.Biome, h.Free)
		}
	}
	b.WriteString("\nDiets:\n")
	for _, d := range []core.Diet{core.DietCarnivore, core.DietHerbivore, core.DietOmnivore} {
		fmt.Fprintf(&b, "  %s: %d\n", d, s.DietDistribution[d])
	}
	if len(s.Unassigned) > 0 {
		b.WriteString("\nUnassigned creatures:\n")
		for _, c := range s.Unassigned {
			fmt.Fprintf(&b, "  %s (%s, size %d)\n", c.Name, c.Species, c.Footprint)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
