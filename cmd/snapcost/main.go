package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"snapcost/internal/config"
	"snapcost/internal/logging"
	"snapcost/internal/models"
	"snapcost/internal/version"
	"snapcost/pkg/formatter"
	"snapcost/pkg/inventory"
	"snapcost/pkg/normalize"
	"snapcost/pkg/pricing"
	"snapcost/pkg/resolver"
	"snapcost/pkg/utils"
)

var showVersion bool

func main() {
	v := viper.New()
	v.SetEnvPrefix("SNAPCOST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "snapcost",
		Short: "Correlate EBS and RDS snapshots to their parent resources",
		Long: `snapcost queries the asset-inventory API for EBS and RDS/DB snapshots,
resolves each one to its owning EC2 or DB instance using batched lookups,
and writes a CSV/HTML report with per-snapshot cost estimates.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				info := version.Get()
				fmt.Printf("snapcost %s (built %s, commit %s, %s)\n",
					info.Version, info.BuildDate, info.GitCommit, info.GoVersion)
				return nil
			}

			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.String("api-url", config.DefaultAPIURL, "Inventory API base URL")
	flags.String("access-key", "", "Inventory API access key (or SNAPCOST_ACCESS_KEY)")
	flags.String("secret-key", "", "Inventory API secret key (or SNAPCOST_SECRET_KEY)")
	flags.StringSlice("account-id", nil, "Account ID filter (repeatable)")
	flags.String("pricing-file", config.DefaultPricingFile, "Path to the snapshot price table JSON")
	flags.String("out", "", "Output file path (default: reports/snapshot-report-<timestamp>.csv)")
	flags.String("format", "csv", "Output format: csv, html, or both")
	flags.Bool("orphaned-only", false, "Report only orphaned snapshots")
	flags.Bool("parent-only", false, "Report only snapshots with a resolved parent")
	flags.Int("batch-size", config.DefaultBatchSize, "Maximum keys per batched inventory query")
	flags.Int("max-attempts", config.DefaultMaxAttempts, "Attempts per API call before giving up")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.BoolVarP(&showVersion, "version", "V", false, "Show version information")
	cobra.CheckErr(v.BindPFlags(flags))

	rootCmd.AddCommand(newPricingCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runReport is the whole pipeline: fetch -> resolve -> normalize -> export.
func runReport(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	scanStart := time.Now()

	client := inventory.NewClient(inventory.Config{
		BaseURL:        cfg.APIURL,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		AccountIDs:     cfg.AccountIDs,
		PageSize:       cfg.PageSize,
		Timeout:        cfg.Timeout,
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}, logger)

	if err := client.Authenticate(ctx); err != nil {
		return err
	}

	snapshots, err := collectSnapshots(ctx, client, logger)
	if err != nil {
		return err
	}
	logger.Info("collected snapshots", zap.Int("count", len(snapshots)))

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Resolving snapshot parents ..."
	s.Start()
	results := resolver.New(client, cfg.BatchSize, logger).Resolve(ctx, snapshots)
	s.Stop()

	// A canceled run still exports whatever resolved before the interrupt
	if ctx.Err() != nil {
		logger.Warn("run interrupted, exporting partial results")
	}

	prices, err := pricing.Load(cfg.PricingFile)
	if err != nil {
		logger.Warn("price table unavailable, costs will be reported as "+models.CostSentinel,
			zap.String("path", cfg.PricingFile), zap.Error(err))
		prices = pricing.Empty()
	}

	normalizer := normalize.New(prices, logger)
	records := make([]models.ResolvedSnapshot, 0, len(results))
	for _, res := range results {
		rec := normalizer.Normalize(res)
		if cfg.OrphanedOnly && !rec.Orphaned {
			continue
		}
		if cfg.ParentOnly && rec.Orphaned {
			continue
		}
		records = append(records, rec)
	}

	if err := export(cfg, records); err != nil {
		return err
	}

	formatter.PrintSummaryTable(records)
	formatter.PrintAPIStats(client.Stats())
	formatter.PrintTimestamp(scanStart, time.Since(scanStart))
	return nil
}

// collectSnapshots lists both snapshot kinds through the paginated
// inventory endpoint and validates them into records.
func collectSnapshots(ctx context.Context, client *inventory.Client, logger *zap.Logger) ([]models.SnapshotRecord, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Collecting snapshots ..."
	s.Start()
	defer s.Stop()

	var snapshots []models.SnapshotRecord
	for _, src := range []struct {
		assetType string
		kind      models.SnapshotKind
	}{
		{inventory.AssetTypeEBSSnapshot, models.KindEBS},
		{inventory.AssetTypeDBSnapshot, models.KindDB},
	} {
		assets, err := client.ListAssets(ctx, src.assetType)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", src.assetType, err)
		}
		for _, a := range assets {
			snapshots = append(snapshots, a.ToSnapshot(src.kind, logger))
		}
	}
	return snapshots, nil
}

func export(cfg config.Config, records []models.ResolvedSnapshot) error {
	if cfg.Format == "csv" || cfg.Format == "both" {
		exp := formatter.NewCSVExporter(cfg.OutputPath)
		if err := exp.Export(records); err != nil {
			return err
		}
		fmt.Printf("CSV report written to %s (%d rows)\n", exp.Path(), len(records))
	}
	if cfg.Format == "html" || cfg.Format == "both" {
		htmlPath := strings.TrimSuffix(cfg.OutputPath, filepath.Ext(cfg.OutputPath)) + ".html"
		exp := formatter.NewHTMLExporter(htmlPath)
		if err := exp.Export(records); err != nil {
			return err
		}
		fmt.Printf("HTML report written to %s\n", exp.Path())
	}
	return nil
}

// newPricingCmd builds the pricing subcommand family: printing the loaded
// table and regenerating it from the AWS Pricing API.
func newPricingCmd() *cobra.Command {
	var pricingFile string

	pricingCmd := &cobra.Command{
		Use:   "pricing",
		Short: "Show the snapshot price table",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := pricing.Load(pricingFile)
			if err != nil {
				return err
			}
			formatter.PrintPricingTable(t)
			return nil
		},
	}
	pricingCmd.PersistentFlags().StringVar(&pricingFile, "pricing-file",
		config.DefaultPricingFile, "Path to the snapshot price table JSON")

	var regions []string
	var verbose bool
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate the price table from the AWS Pricing API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if len(regions) == 0 {
				regions = utils.AllRegions()
			}
			for _, r := range regions {
				if !utils.IsValidRegion(r) {
					return fmt.Errorf("unknown region %q", r)
				}
			}

			gen, err := pricing.NewGenerator(cmd.Context(), logger)
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = fmt.Sprintf(" Fetching snapshot pricing for %d regions ...", len(regions))
			s.Start()
			t, err := gen.Generate(cmd.Context(), regions)
			s.Stop()
			if err != nil {
				return err
			}

			if err := t.WriteFile(pricingFile); err != nil {
				return err
			}
			fmt.Printf("Price table written to %s (%d regions)\n", pricingFile, len(t.Regions))
			return nil
		},
	}
	generateCmd.Flags().StringSliceVar(&regions, "regions", nil,
		"Regions to price (comma separated, default: all known regions)")
	generateCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	pricingCmd.AddCommand(generateCmd)

	return pricingCmd
}
