package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"galapagos/internal/config"
	"galapagos/internal/model"
	api "galapagos/pkg/galapagos"
)

type globalOptions struct {
	storeKind string
	dbPath    string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "galapagosctl",
		Short:         "Run and inspect genetic algorithm experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.storeKind, "store", "sqlite", "store backend: memory|sqlite")
	root.PersistentFlags().StringVar(&opts.dbPath, "db-path", "galapagos.db", "sqlite database path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text|json")

	root.AddCommand(
		newRunCmd(opts),
		newRunsCmd(opts),
		newGenerationsCmd(opts),
		newProblemsCmd(),
		newExportCmd(opts),
		newDeleteCmd(opts),
	)
	return root
}

func (o *globalOptions) client(cmd *cobra.Command) (*api.Client, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
	if err != nil {
		return nil, err
	}
	client, err := api.New(api.Options{
		StoreKind: o.storeKind,
		DBPath:    o.dbPath,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(cmd.Context()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		configPath  string
		problemName string
		generations int
		population  int
		seed        int64
		workers     int
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a problem and store the run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg *config.Config
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
				if !cmd.Flags().Changed("log-level") {
					opts.logLevel = cfg.Logging.Level
				}
				if !cmd.Flags().Changed("log-format") {
					opts.logFormat = cfg.Logging.Format
				}
				if !cmd.Flags().Changed("store") {
					opts.storeKind = cfg.Store.Kind
				}
				if !cmd.Flags().Changed("db-path") && cfg.Store.Path != "" {
					opts.dbPath = cfg.Store.Path
				}
			}
			if cfg == nil && problemName == "" {
				return errors.New("run requires --problem or --config")
			}

			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			summary, err := client.Run(cmd.Context(), api.RunRequest{
				Config:      cfg,
				Problem:     problemName,
				Population:  population,
				Generations: generations,
				Seed:        seed,
				Workers:     workers,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s problem=%s generations=%d best_fitness=%g best_generation=%d killed=%d invalid=%d best=%s\n",
				summary.RunID,
				summary.Problem,
				summary.Generations,
				summary.BestFitness,
				summary.BestGeneration,
				summary.Killed,
				summary.Invalid,
				summary.BestGenotype,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration")
	cmd.Flags().StringVar(&problemName, "problem", "", "problem name (see problems)")
	cmd.Flags().IntVar(&generations, "generations", 0, "maximal number of generations")
	cmd.Flags().IntVar(&population, "population", 0, "population size")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent evaluation workers")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the run summary as JSON")
	return cmd
}

func newRunsCmd(opts *globalOptions) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			runs, err := client.Runs(cmd.Context(), api.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
				return nil
			}
			for _, r := range runs {
				printRun(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs list as JSON")
	return cmd
}

func printRun(w io.Writer, r model.RunRecord) {
	fmt.Fprintf(w, "run_id=%s created_at=%s problem=%s seed=%d pop=%d gens=%d optimize=%s best_fitness=%g best_generation=%d\n",
		r.ID,
		r.CreatedAt.Format(time.RFC3339),
		r.Problem,
		r.Seed,
		r.PopulationSize,
		r.Generations,
		r.Optimize,
		r.BestFitness,
		r.BestGeneration,
	)
}

func newGenerationsCmd(opts *globalOptions) *cobra.Command {
	var (
		runID   string
		latest  bool
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "generations",
		Short: "Show per-generation statistics of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID != "" && latest {
				return errors.New("use either --run-id or --latest, not both")
			}
			if runID == "" && !latest {
				return errors.New("generations requires --run-id or --latest")
			}
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			generations, err := client.Generations(cmd.Context(), api.GenerationsRequest{RunID: runID, Latest: latest, Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), generations)
			}
			for _, g := range generations {
				fmt.Fprintf(cmd.OutOrStdout(), "generation=%d best=%g worst=%g mean=%g variance=%g age_mean=%g killed=%d invalid=%d altered=%d execution_ms=%.3f\n",
					g.Generation,
					g.BestFitness,
					g.WorstFitness,
					g.FitnessMean,
					g.FitnessVariance,
					g.AgeMean,
					g.Killed,
					g.Invalid,
					g.Altered,
					g.Durations.Execution,
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "use the most recent run")
	cmd.Flags().IntVar(&limit, "limit", 0, "max generations to show, 0 for all")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit generations as JSON")
	return cmd
}

func newProblemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "problems",
		Short: "List the available problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := api.New(api.Options{StoreKind: "memory"})
			if err != nil {
				return err
			}
			for _, p := range client.Problems() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, p.Description)
			}
			return nil
		},
	}
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		runID  string
		latest bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a run as run.json and generations.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID != "" && latest {
				return errors.New("use either --run-id or --latest, not both")
			}
			if runID == "" && !latest {
				return errors.New("export requires --run-id or --latest")
			}
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			summary, err := client.Export(cmd.Context(), api.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s to=%s\n", summary.RunID, summary.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "export the most recent run")
	cmd.Flags().StringVar(&outDir, "out", "exports", "export output directory")
	return cmd
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			if err := client.Delete(cmd.Context(), runID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run_id=%s\n", runID)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	_ = cmd.MarkFlagRequired("run-id")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
