package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dynobench/internal/banner"
	"dynobench/internal/bench"
	"dynobench/internal/cli"
	"dynobench/internal/executor"
	"dynobench/internal/tui"
)

var (
	cfgFile string

	// CLI Flags
	table          string
	partitionKey   string
	partitionValue string
	sortKey        string
	sortStart      string
	sortEnd        string
	numQueries     int
	warmup         int
	qps            int
	region         string
	parallelism    int
	consistent     bool
	maxRetries     int
	timeoutMs      int
	poolSize       int
	progressEvery  int
	simulate       bool
	simLatencyMs   int
	simJitterMs    int
	simFailEvery   int
	useTUI         bool
	outPrefix      string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "dynobench",
	Short: "DynoBench - DynamoDB range-query latency benchmark",
	Long: `
DynoBench issues a fixed number of range queries against a DynamoDB
table at a controlled rate and concurrency, then reports latency
percentiles, tail ratios and throughput.

Use --simulate to exercise the pipeline against a fake backend without
a table or AWS credentials.`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runBench())
	},
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dynobench.yaml)")

	rootCmd.Flags().StringVarP(&table, "table", "t", "", "DynamoDB table name")
	rootCmd.Flags().StringVarP(&partitionKey, "partition-key", "p", "", "Partition key name")
	rootCmd.Flags().StringVarP(&partitionValue, "partition-value", "P", "", "Partition key value")
	rootCmd.Flags().StringVarP(&sortKey, "sort-key", "s", "", "Sort key name")
	rootCmd.Flags().StringVarP(&sortStart, "sort-start", "S", "", "Sort key range start (inclusive)")
	rootCmd.Flags().StringVarP(&sortEnd, "sort-end", "E", "", "Sort key range end (inclusive)")
	rootCmd.Flags().IntVarP(&numQueries, "num-queries", "n", 100, "Number of measured queries")
	rootCmd.Flags().IntVarP(&warmup, "warmup", "w", 10, "Warmup queries before measuring")
	rootCmd.Flags().IntVar(&qps, "qps", 10, "Target queries/second (0 = unlimited)")
	rootCmd.Flags().StringVarP(&region, "region", "r", "us-west-2", "AWS region")
	rootCmd.Flags().IntVarP(&parallelism, "parallelism", "k", 1, "Max concurrent queries")
	rootCmd.Flags().BoolVar(&consistent, "consistent", false, "Use strongly consistent reads")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Retries per query for retryable failures")
	rootCmd.Flags().IntVar(&timeoutMs, "timeout", 0, "Per-attempt timeout in ms (0 = none)")
	rootCmd.Flags().IntVar(&poolSize, "pool-size", 50, "HTTP connection pool size")
	rootCmd.Flags().IntVar(&progressEvery, "progress", 10, "Progress update every N completions")
	rootCmd.Flags().BoolVar(&simulate, "simulate", false, "Run against a simulated backend")
	rootCmd.Flags().IntVar(&simLatencyMs, "sim-latency", 25, "Simulated backend latency in ms")
	rootCmd.Flags().IntVar(&simJitterMs, "sim-jitter", 0, "Simulated latency jitter in ms")
	rootCmd.Flags().IntVar(&simFailEvery, "sim-fail-every", 0, "Simulated failure every N-th call (0 = never)")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "Show a live dashboard while running")
	rootCmd.Flags().StringVarP(&outPrefix, "out", "o", "", "Output filename prefix for the JSON report")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".dynobench")
		}
	}
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func runBench() int {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := bench.RunConfig{
		NumQueries:    numQueries,
		Warmup:        warmup,
		QPS:           qps,
		Parallelism:   parallelism,
		MaxRetries:    maxRetries,
		Timeout:       time.Duration(timeoutMs) * time.Millisecond,
		PoolSize:      poolSize,
		Region:        region,
		ProgressEvery: progressEvery,
	}

	consistency := bench.Eventual
	if consistent {
		consistency = bench.Strong
	}
	spec := bench.QuerySpec{
		Table:          table,
		PartitionKey:   partitionKey,
		PartitionValue: partitionValue,
		SortKey:        sortKey,
		SortStart:      sortStart,
		SortEnd:        sortEnd,
		Consistency:    consistency,
	}

	if err := validate(cfg, spec); err != nil {
		logrus.WithError(err).Error("invalid configuration")
		return 1
	}

	ctx := context.Background()

	var exec bench.Executor
	if simulate {
		exec = &executor.Stub{
			Latency:   time.Duration(simLatencyMs) * time.Millisecond,
			Jitter:    time.Duration(simJitterMs) * time.Millisecond,
			FailEvery: simFailEvery,
		}
	} else {
		d, err := executor.NewDynamo(ctx, region, poolSize)
		if err != nil {
			logrus.WithError(err).Error("cannot build DynamoDB client")
			return 1
		}
		exec = d
	}

	if useTUI {
		res, err := tui.Run(ctx, cfg, spec, exec)
		if err != nil {
			logrus.WithError(err).Error("run did not complete")
			return 1
		}
		cli.PrintReport(cfg, spec, res)
		if outPrefix != "" {
			if err := cli.ExportJSON(outPrefix, cfg, spec, res); err != nil {
				logrus.WithError(err).Warn("could not write JSON report")
			}
		}
		return 0
	}

	return cli.Run(ctx, cli.Options{Cfg: cfg, Spec: spec, Exec: exec, OutPrefix: outPrefix})
}

func validate(cfg bench.RunConfig, spec bench.QuerySpec) error {
	if !simulate {
		if spec.Table == "" {
			return errors.New("--table is required")
		}
		if spec.PartitionKey == "" || spec.PartitionValue == "" {
			return errors.New("--partition-key and --partition-value are required")
		}
		if (spec.SortStart != "" || spec.SortEnd != "") && spec.SortKey == "" {
			return errors.New("--sort-key is required when sort bounds are set")
		}
	}
	if cfg.NumQueries < 0 {
		return errors.New("--num-queries must be >= 0")
	}
	if cfg.Warmup < 0 {
		return errors.New("--warmup must be >= 0")
	}
	if cfg.QPS < 0 {
		return errors.New("--qps must be >= 0")
	}
	if cfg.Parallelism < 1 {
		return errors.New("--parallelism must be >= 1")
	}
	if cfg.MaxRetries < 0 {
		return errors.New("--max-retries must be >= 0")
	}
	if cfg.Timeout < 0 {
		return errors.New("--timeout must be >= 0")
	}
	return nil
}
