package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gametune/internal/bootstrap"
	expinadapter "gametune/internal/modules/experiment/adapter/in"
	gamerpc "gametune/internal/modules/gameplay/adapter/in/rpc"
	gamedto "gametune/internal/modules/gameplay/dto"
	perfdto "gametune/internal/modules/performance/dto"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/otel"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "gametune",
		Short:         "Adaptive difficulty and experimentation engine for learning games",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root)

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newParamsCmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newExperimentCmd(flags))
	root.AddCommand(newPlayerCmd(flags))
	root.AddCommand(newOverrideCmd(flags))
	root.AddCommand(newFeedbackCmd(flags))
	root.AddCommand(newDebugCmd(flags))
	root.AddCommand(newGamesCmd(flags))
	root.AddCommand(newMaintenanceCmd(flags))
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parsePatch accepts YAML or JSON, e.g. `{time_limit_ms: 20000}`.
func parsePatch(raw string) (gameparams.Patch, error) {
	patch := gameparams.Patch{}
	if strings.TrimSpace(raw) == "" {
		return patch, nil
	}
	if err := yaml.Unmarshal([]byte(raw), &patch); err != nil {
		return patch, fmt.Errorf("decode patch: %w", err)
	}
	return patch, nil
}

func requireFlags(values map[string]string) error {
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("--%s is required", name)
		}
	}
	return nil
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over gRPC and run monitors and retention",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := flags.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.GRPCAddr = addr
			}
			shutdown, err := otel.Setup(ctx, "gametune", cfg.OTelEndpoint)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			app, err := bootstrap.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return app.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides GAMETUNE_GRPC_ADDR)")
	return cmd
}

func newParamsCmd(flags *globalFlags) *cobra.Command {
	params := &cobra.Command{Use: "params", Short: "Resolve game parameters"}

	var gameID, playerID string
	var level int
	get := &cobra.Command{
		Use:   "get --game <id> --player <id>",
		Short: "Resolve the parameters a player's next session starts with",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(map[string]string{"game": gameID, "player": playerID}); err != nil {
				return err
			}
			ctx := cmd.Context()
			eng, err := flags.engine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			out, err := eng.GetGameParameters(ctx, gamedto.ResolveInput{GameID: gameID, PlayerID: playerID, PlayerLevel: level})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	get.Flags().StringVar(&gameID, "game", "", "game id")
	get.Flags().StringVar(&playerID, "player", "", "player id")
	get.Flags().IntVar(&level, "level", 1, "player level")
	params.AddCommand(get)
	return params
}

func newSessionCmd(flags *globalFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Record finished sessions"}

	var gameID, playerID, resultPath string
	var level int
	var result perfdto.SessionResult
	submit := &cobra.Command{
		Use:   "submit --game <id> --player <id>",
		Short: "Submit a session result and evaluate difficulty",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(map[string]string{"game": gameID, "player": playerID}); err != nil {
				return err
			}
			if resultPath != "" {
				raw, err := os.ReadFile(resultPath)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &result); err != nil {
					return fmt.Errorf("decode session result: %w", err)
				}
			}
			ctx := cmd.Context()
			eng, err := flags.engine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			out, err := eng.SubmitSessionResult(ctx, gamedto.SubmitSessionInput{GameID: gameID, PlayerID: playerID, PlayerLevel: level, Result: result})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s recorded (%d total) outcome=%s success_rate=%.1f\n",
				out.SessionID, out.SessionsRecorded, out.Evaluation.Outcome, out.Evaluation.SuccessRate)
			if out.Evaluation.Reason != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reason: %s\n", out.Evaluation.Reason)
			}
			if out.ExperimentID != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "experiment %s variant %s first=%t\n", out.ExperimentID, out.VariantID, out.FirstParticipation)
			}
			return nil
		},
	}
	submit.Flags().StringVar(&gameID, "game", "", "game id")
	submit.Flags().StringVar(&playerID, "player", "", "player id")
	submit.Flags().IntVar(&level, "level", 1, "player level")
	submit.Flags().StringVar(&resultPath, "result", "", "JSON file with the full session result")
	submit.Flags().Float64Var(&result.Accuracy, "accuracy", 0, "accuracy 0..100")
	submit.Flags().Float64Var(&result.Score, "score", 0, "session score")
	submit.Flags().IntVar(&result.TotalProblems, "total", 0, "problems presented")
	submit.Flags().IntVar(&result.ProblemsAttempted, "attempted", 0, "problems attempted")
	submit.Flags().IntVar(&result.CorrectCount, "correct", 0, "correct answers")
	submit.Flags().IntVar(&result.HintsUsed, "hints", 0, "hints used")
	submit.Flags().IntVar(&result.Retries, "retries", 0, "retries")
	submit.Flags().Int64Var(&result.TimeSpentMS, "time-ms", 0, "time spent in milliseconds")
	session.AddCommand(submit)
	return session
}

func newExperimentCmd(flags *globalFlags) *cobra.Command {
	experiment := &cobra.Command{Use: "experiment", Short: "Run A/B experiments"}

	experiment.AddCommand(&cobra.Command{
		Use:   "create <definition.yaml>",
		Short: "Create an experiment from a YAML definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			input, err := expinadapter.ParseDefinition(raw)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			eng, err := flags.engine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			out, err := eng.CreateExperiment(ctx, input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "experiment created: %s (%d variants, %s → %s)\n",
				out.ID, len(out.Variants), out.StartAt.Format(time.RFC3339), out.EndAt.Format(time.RFC3339))
			return nil
		},
	})

	var reason string
	stop := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop an experiment and store its final analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := flags.engine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			out, err := eng.StopExperiment(ctx, args[0], reason)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Report)
			return nil
		},
	}
	stop.Flags().StringVar(&reason, "reason", "manual", "why the experiment is stopped")
	experiment.AddCommand(stop)

	var asJSON bool
	dashboard := &cobra.Command{
		Use:   "dashboard <id>",
		Short: "Show variant metrics, analysis and alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := flags.engine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			out, err := eng.Dashboard(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t participants=%d samples=%d significant=%t quality=%s\n",
				out.Experiment.ID, out.Experiment.Active, out.Experiment.ParticipantCount, out.TotalSamples, out.Significant, out.DataQuality)
			for _, v := range out.Variants {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\tsamples=%d\taccuracy=%.1f\tcompletion=%.2f\tengagement=%.1f\ttrend=%s\n",
					v.VariantID, v.Samples, v.Accuracy, v.Completion, v.Engagement, v.Trend)
			}
			for _, r := range out.Results {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\tp=%.2f\twinner=%s\t%s\n", r.Metric, r.PValue, r.Winner, r.Recommendation.Action)
			}
			for _, a := range out.Alerts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s %s\n", a.Severity, a.RaisedAt.Format(time.RFC3339), a.Message)
			}
			return nil
		},
	}
	dashboard.Flags().BoolVar(&asJSON, "json", false, "print the raw dashboard as JSON")
	experiment.AddCommand(dashboard)

	var interval time.Duration
	watch := &cobra.Command{
		Use:   "watch [id]",
		Short: "Open the live terminal dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			focus := ""
			if len(args) == 1 {
				focus = args[0]
			}
			if addr := strings.TrimSpace(flags.remote); addr != "" {
				client, err := gamerpc.Dial(addr)
				if err != nil {
					return err
				}
				defer func() { _ = client.Close() }()
				return bootstrap.RunRemoteDashboard(client, flags.catalog, focus, interval)
			}
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunDashboard(app, focus, interval)
		},
	}
	watch.Flags().DurationVar(&interval, "interval", 5*time.Second, "refresh interval")
	experiment.AddCommand(watch)

	experiment.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List experiments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, err := flags.engine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			list, err := eng.List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no experiments")
				return nil
			}
			for _, e := range list {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tactive=%t\tparticipants=%d\t%s\n",
					e.ID, e.Name, e.Active, e.ParticipantCount, strings.Join(e.TargetGames, ","))
			}
			return nil
		},
	})

	experiment.AddCommand(&cobra.Command{
		Use:   "check <id>",
		Short: "Evaluate monitoring rules once, stopping on adverse effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.MonitoringCLI.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, a := range out.Alerts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", a.Severity, a.Message)
			}
			if out.Stopped {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stopped: %s\n", out.Reason)
			}
			return nil
		},
	})
	return experiment
}

func newPlayerCmd(flags *globalFlags) *cobra.Command {
	player := &cobra.Command{Use: "player", Short: "Inspect player history"}
	var gameID, playerID string
	show := &cobra.Command{
		Use:   "show --game <id> --player <id>",
		Short: "Show sessions, stats and adjustment history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(map[string]string{"game": gameID, "player": playerID}); err != nil {
				return err
			}
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.PerformanceCLI.Show(cmd.Context(), gameID, playerID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	show.Flags().StringVar(&gameID, "game", "", "game id")
	show.Flags().StringVar(&playerID, "player", "", "player id")
	player.AddCommand(show)
	return player
}

func newOverrideCmd(flags *globalFlags) *cobra.Command {
	override := &cobra.Command{Use: "override", Short: "Force per-player parameter overrides"}

	var gameID, playerID, patchRaw, note string
	var ttl time.Duration
	set := &cobra.Command{
		Use:   "set --game <id> --player <id> --patch <yaml>",
		Short: "Override parameters for one player until the TTL expires",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(map[string]string{"game": gameID, "player": playerID, "patch": patchRaw}); err != nil {
				return err
			}
			patch, err := parsePatch(patchRaw)
			if err != nil {
				return err
			}
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.DifficultyCLI.Override(cmd.Context(), gameID, playerID, patch, ttl, note)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "override set for %s/%s until %s\n", out.GameID, out.PlayerID, out.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	set.Flags().StringVar(&gameID, "game", "", "game id")
	set.Flags().StringVar(&playerID, "player", "", "player id")
	set.Flags().StringVar(&patchRaw, "patch", "", "parameter patch as YAML or JSON")
	set.Flags().DurationVar(&ttl, "ttl", 0, "override lifetime (default 24h)")
	set.Flags().StringVar(&note, "note", "", "operator note")

	var clearGame, clearPlayer string
	clearCmd := &cobra.Command{
		Use:   "clear --game <id> --player <id>",
		Short: "Remove a player's override",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(map[string]string{"game": clearGame, "player": clearPlayer}); err != nil {
				return err
			}
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.DifficultyCLI.ClearOverride(cmd.Context(), clearGame, clearPlayer); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "override cleared")
			return nil
		},
	}
	clearCmd.Flags().StringVar(&clearGame, "game", "", "game id")
	clearCmd.Flags().StringVar(&clearPlayer, "player", "", "player id")

	override.AddCommand(set, clearCmd)
	return override
}

func newFeedbackCmd(flags *globalFlags) *cobra.Command {
	var gameID, playerID string
	cmd := &cobra.Command{
		Use:   "feedback <too_easy|too_hard|just_right> --game <id> --player <id>",
		Short: "Record explicit player feedback on difficulty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(map[string]string{"game": gameID, "player": playerID}); err != nil {
				return err
			}
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.DifficultyCLI.Feedback(cmd.Context(), gameID, playerID, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "feedback applied: outcome=%s\n", out.Outcome)
			return nil
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "game id")
	cmd.Flags().StringVar(&playerID, "player", "", "player id")
	return cmd
}

func newDebugCmd(flags *globalFlags) *cobra.Command {
	debug := &cobra.Command{Use: "debug", Short: "Global debug parameter overlay"}

	var disable bool
	var patchRaw string
	set := &cobra.Command{
		Use:   "set --patch <yaml> --remote <addr>",
		Short: "Overlay a patch on every resolution in a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Debug mode lives in process memory, so it only makes sense
			// against a server.
			if strings.TrimSpace(flags.remote) == "" {
				return fmt.Errorf("debug mode is held by `gametune serve`; pass --remote")
			}
			patch, err := parsePatch(patchRaw)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			eng, err := flags.engine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			out, err := eng.SetDebugMode(ctx, gamedto.DebugInput{Enabled: !disable, Patch: patch})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	set.Flags().StringVar(&patchRaw, "patch", "", "parameter patch as YAML or JSON")
	set.Flags().BoolVar(&disable, "off", false, "disable debug mode and clear the patch")
	debug.AddCommand(set)
	return debug
}

func newGamesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List games in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			games, err := app.DifficultyCLI.Games(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range games {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tproblems=%d\ttime=%dms\thints=%.0f\n",
					g.ID, g.Name, g.Base.ProblemCount, g.Base.TimeLimitMS, g.Base.HintAvailability)
			}
			return nil
		},
	}
}

func newMaintenanceCmd(flags *globalFlags) *cobra.Command {
	maintenance := &cobra.Command{Use: "maintenance", Short: "Data retention"}
	maintenance.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete history older than the retention window and expired overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := flags.app(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			report, err := app.RetentionCLI.Prune(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	})
	return maintenance
}
