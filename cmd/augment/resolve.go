package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	augment "github.com/goliatone/go-augment"
	"github.com/goliatone/go-augment/pkg/blueprints"
	"github.com/goliatone/go-augment/pkg/metrics"
	"github.com/goliatone/go-augment/pkg/routing"
	"github.com/goliatone/go-augment/pkg/store"
)

var (
	ErrUnknownRecord = errors.New("augment: unknown record")
	ErrNoSource      = errors.New("augment: one of --data or --dsn is required")
)

type resolveFlags struct {
	blueprints string
	data       string
	record     string
	keys       []string
	trace      bool
	augment    bool
	siteURL    string
	amp        bool
	verbose    bool
	metrics    bool
	db         databaseFlags
}

func newResolveCmd() *cobra.Command {
	flags := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the values of a record",
		Long: "Resolve loads blueprints and a data document, then prints the resolved\n" +
			"value of every requested key (all keys when --key is omitted) as JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.blueprints, "blueprints", "", "Directory of blueprint documents")
	cmd.Flags().StringVar(&flags.data, "data", "", "Data document holding containers, records and users")
	cmd.Flags().StringVar(&flags.record, "record", "", "ID of the record to resolve")
	cmd.Flags().StringArrayVar(&flags.keys, "key", nil, "Key to resolve (repeatable)")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "Print the layer trace of each key instead of its value")
	cmd.Flags().BoolVar(&flags.augment, "augment", false, "Print augmented values instead of raw values")
	cmd.Flags().StringVar(&flags.siteURL, "site-url", "", "Site root used to build record URLs")
	cmd.Flags().BoolVar(&flags.amp, "amp", false, "Enable AMP URLs")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every lookup to stderr")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "Print resolution metrics to stderr when done")
	flags.db.register(cmd)
	_ = cmd.MarkFlagRequired("record")
	return cmd
}

func runResolve(cmd *cobra.Command, flags *resolveFlags) error {
	ctx := cmd.Context()

	if flags.data == "" && !flags.db.enabled() {
		return ErrNoSource
	}

	memory := store.NewMemoryStore()
	if flags.data != "" {
		fixture, err := store.LoadFixture(flags.data)
		if err != nil {
			return err
		}
		if err := memory.Seed(fixture); err != nil {
			return err
		}
	}
	var (
		records augment.Store      = memory
		users   augment.UserLookup = memory
	)
	if flags.db.enabled() {
		db, err := flags.db.open(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		records, users = db, db
	}

	opts := []augment.Option{
		augment.WithStore(records),
		augment.WithUserLookup(users),
		augment.WithAmp(flags.amp),
	}
	if flags.blueprints != "" {
		registry, err := blueprints.LoadDir(flags.blueprints)
		if err != nil {
			return err
		}
		opts = append(opts, augment.WithSchemaRegistry(registry))
	}
	if flags.siteURL != "" {
		opts = append(opts, augment.WithURLBuilder(routing.NewPatternBuilder(routing.Config{SiteURL: flags.siteURL})))
	}
	var loggers []augment.ResolutionLogger
	if flags.verbose {
		stderr := cmd.ErrOrStderr()
		loggers = append(loggers, augment.ResolutionLoggerFunc(func(event augment.ResolutionLogEvent) {
			fmt.Fprintf(stderr, "resolve record=%s key=%s layer=%s found=%t took=%s\n",
				event.RecordID, event.Key, event.Layer, event.Found, event.Duration.Round(time.Microsecond))
		}))
	}
	if flags.metrics {
		registry := prometheus.NewRegistry()
		recorder, err := metrics.NewRecorder(registry)
		if err != nil {
			return err
		}
		loggers = append(loggers, recorder)
		opts = append(opts, augment.WithEvaluatorLogger(recorder))
		defer printMetrics(cmd.ErrOrStderr(), registry)
	}
	if len(loggers) > 0 {
		opts = append(opts, augment.WithResolutionLogger(augment.MultiResolutionLogger(loggers...)))
	}
	resolver := augment.NewResolver(opts...)

	record, ok, err := records.Load(ctx, flags.record)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRecord, flags.record)
	}

	var out any
	switch {
	case flags.trace:
		keys := flags.keys
		if len(keys) == 0 {
			if keys, err = resolver.Keys(ctx, record); err != nil {
				return err
			}
		}
		traces := make(map[string]augment.Trace, len(keys))
		for _, key := range keys {
			_, trace, err := resolver.ResolveWithTrace(ctx, record, key)
			if err != nil {
				return err
			}
			traces[key] = trace
		}
		out = traces
	default:
		values, err := resolver.ResolveAll(ctx, record, flags.keys...)
		if err != nil {
			return err
		}
		if flags.augment {
			if out, err = values.Augment(ctx); err != nil {
				return err
			}
		} else {
			out = values.Raw()
		}
	}
	return writeJSON(cmd, out)
}

// printMetrics writes one line per series: counters with their value and
// histograms with their sample count.
func printMetrics(w io.Writer, gatherer prometheus.Gatherer) {
	families, err := gatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics: %v\n", err)
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels = append(labels, pair.GetName()+"="+pair.GetValue())
			}
			switch {
			case metric.GetCounter() != nil:
				fmt.Fprintf(w, "%s{%s} %g\n", family.GetName(), strings.Join(labels, ","), metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				fmt.Fprintf(w, "%s_count{%s} %d\n", family.GetName(), strings.Join(labels, ","), metric.GetHistogram().GetSampleCount())
			}
		}
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
