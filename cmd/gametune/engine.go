package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gametune/internal/bootstrap"
	expdto "gametune/internal/modules/experiment/dto"
	gamerpc "gametune/internal/modules/gameplay/adapter/in/rpc"
	gamedto "gametune/internal/modules/gameplay/dto"
	"gametune/internal/platform/config"
)

// engine is the surface shared by the in-process app and a remote server.
type engine interface {
	GetGameParameters(ctx context.Context, in gamedto.ResolveInput) (gamedto.ParametersOutput, error)
	SubmitSessionResult(ctx context.Context, in gamedto.SubmitSessionInput) (gamedto.SubmitSessionOutput, error)
	SetDebugMode(ctx context.Context, in gamedto.DebugInput) (gamedto.DebugOutput, error)
	CreateExperiment(ctx context.Context, in expdto.CreateExperimentInput) (expdto.ExperimentOutput, error)
	StopExperiment(ctx context.Context, experimentID, reason string) (expdto.ResultOutput, error)
	Dashboard(ctx context.Context, experimentID string) (expdto.DashboardOutput, error)
	List(ctx context.Context) ([]expdto.ExperimentOutput, error)
	Close() error
}

type localEngine struct {
	app *bootstrap.App
}

func (e localEngine) GetGameParameters(ctx context.Context, in gamedto.ResolveInput) (gamedto.ParametersOutput, error) {
	return e.app.GameplayCLI.Params(ctx, in.GameID, in.PlayerID, in.PlayerLevel)
}

func (e localEngine) SubmitSessionResult(ctx context.Context, in gamedto.SubmitSessionInput) (gamedto.SubmitSessionOutput, error) {
	return e.app.GameplayCLI.Submit(ctx, in)
}

func (e localEngine) SetDebugMode(ctx context.Context, in gamedto.DebugInput) (gamedto.DebugOutput, error) {
	return e.app.GameplayCLI.SetDebug(ctx, in.Enabled, in.Patch)
}

func (e localEngine) CreateExperiment(ctx context.Context, in expdto.CreateExperimentInput) (expdto.ExperimentOutput, error) {
	return e.app.ExperimentCLI.Create(ctx, in)
}

func (e localEngine) StopExperiment(ctx context.Context, experimentID, reason string) (expdto.ResultOutput, error) {
	return e.app.ExperimentCLI.Stop(ctx, experimentID, reason)
}

func (e localEngine) Dashboard(ctx context.Context, experimentID string) (expdto.DashboardOutput, error) {
	return e.app.ExperimentCLI.Dashboard(ctx, experimentID)
}

func (e localEngine) List(ctx context.Context) ([]expdto.ExperimentOutput, error) {
	return e.app.ExperimentCLI.List(ctx)
}

func (e localEngine) Close() error {
	return e.app.Close()
}

type globalFlags struct {
	store   string
	dataDir string
	catalog string
	remote  string
}

func (f *globalFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.store, "store", "", "storage backend: memory|sqlite (overrides GAMETUNE_STORE)")
	cmd.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "data directory (overrides GAMETUNE_DATA_DIR)")
	cmd.PersistentFlags().StringVar(&f.catalog, "catalog", "", "game catalog YAML (overrides GAMETUNE_CATALOG)")
	cmd.PersistentFlags().StringVar(&f.remote, "remote", "", "address of a running `gametune serve`")
}

func (f *globalFlags) config() (config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return config.Config{}, err
	}
	if f.store != "" {
		cfg.Store = f.store
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.catalog != "" {
		cfg.CatalogPath = f.catalog
	}
	return cfg, cfg.Validate()
}

func (f *globalFlags) app(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg)
}

// engine dials --remote when set, otherwise builds the app in-process.
func (f *globalFlags) engine(ctx context.Context) (engine, error) {
	if addr := strings.TrimSpace(f.remote); addr != "" {
		client, err := gamerpc.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return client, nil
	}
	app, err := f.app(ctx)
	if err != nil {
		return nil, err
	}
	return localEngine{app: app}, nil
}
