package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"weatherpredict/internal/app"
	"weatherpredict/internal/config"
	"weatherpredict/internal/core"
	"weatherpredict/internal/features"
	"weatherpredict/internal/prediction"
	"weatherpredict/internal/scenario"
)

// cli holds state shared by subcommands once the root command has loaded
// configuration.
type cli struct {
	out     io.Writer
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "weatherctl",
		Short:         "Weather prediction service and scoring tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if c.envFile != "" {
				files = append(files, c.envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = app.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file to load before the environment (default .env)")

	root.AddCommand(c.serveCmd(), c.predictCmd(), c.simulateCmd(), c.versionCmd())
	return root
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			return a.ListenAndServe(ctx)
		},
	}
}

func (c *cli) predictCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one feature vector read from a JSON file or stdin",
		Example: `  weatherctl predict --file request.json
  echo '{"temp":20,...}' | weatherctl predict --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if err := core.NewValidator(c.logger).ValidateStruct(req); err != nil {
				return err
			}

			svc := c.service(cmd.Context(), nil)
			res, err := svc.Predict(cmd.Context(), req.Vector())
			if err != nil {
				return err
			}
			return c.print(res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "request JSON file, or - for stdin")
	return cmd
}

func (c *cli) simulateCmd() *cobra.Command {
	var (
		season  string
		samples int
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate seasonal scenarios and score each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []prediction.Option
			if cmd.Flags().Changed("seed") {
				opts = append(opts, prediction.WithGenerator(scenario.NewGenerator(scenario.WithSeed(seed, seed))))
			}

			svc := c.service(cmd.Context(), opts)
			sim, err := svc.Simulate(cmd.Context(), prediction.SimulationRequest{
				Samples: &samples,
				Season:  &season,
			})
			if err != nil {
				return err
			}
			return c.print(sim)
		},
	}
	cmd.Flags().StringVarP(&season, "season", "s", string(scenario.DefaultSeason), "summer, winter, spring or autumn")
	cmd.Flags().IntVarP(&samples, "samples", "n", scenario.DefaultSamples, "number of scenarios (1-50)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible scenarios")
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := c.cfg.Build
			_, err := fmt.Fprintf(c.out, "weatherctl %s (commit %s, built %s)\n", b.Version, b.Commit, b.BuildTime)
			return err
		},
	}
}

func (c *cli) service(ctx context.Context, opts []prediction.Option) *prediction.Service {
	o := app.LoadOracle(ctx, c.cfg, c.logger)
	opts = append([]prediction.Option{prediction.WithConcurrency(c.cfg.Simulation.Concurrency)}, opts...)
	return prediction.NewService(o, c.logger, opts...)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readRequest(stdin io.Reader, file string) (features.Request, error) {
	var req features.Request

	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return req, fmt.Errorf("opening request file: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decoding request: %w", err)
	}
	return req, nil
}
