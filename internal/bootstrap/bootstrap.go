package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	diffinadapter "gametune/internal/modules/difficulty/adapter/in"
	diffoutadapter "gametune/internal/modules/difficulty/adapter/out"
	diffin "gametune/internal/modules/difficulty/port/in"
	diffout "gametune/internal/modules/difficulty/port/out"
	diffservice "gametune/internal/modules/difficulty/service"
	diffusecase "gametune/internal/modules/difficulty/usecase"
	expinadapter "gametune/internal/modules/experiment/adapter/in"
	expoutadapter "gametune/internal/modules/experiment/adapter/out"
	expin "gametune/internal/modules/experiment/port/in"
	expout "gametune/internal/modules/experiment/port/out"
	expservice "gametune/internal/modules/experiment/service"
	expusecase "gametune/internal/modules/experiment/usecase"
	gameinadapter "gametune/internal/modules/gameplay/adapter/in"
	gamerpc "gametune/internal/modules/gameplay/adapter/in/rpc"
	gameoutadapter "gametune/internal/modules/gameplay/adapter/out"
	gameservice "gametune/internal/modules/gameplay/service"
	gameusecase "gametune/internal/modules/gameplay/usecase"
	moninadapter "gametune/internal/modules/monitoring/adapter/in"
	monoutadapter "gametune/internal/modules/monitoring/adapter/out"
	monservice "gametune/internal/modules/monitoring/service"
	monusecase "gametune/internal/modules/monitoring/usecase"
	perfinadapter "gametune/internal/modules/performance/adapter/in"
	perfoutadapter "gametune/internal/modules/performance/adapter/out"
	perfout "gametune/internal/modules/performance/port/out"
	perfservice "gametune/internal/modules/performance/service"
	perfusecase "gametune/internal/modules/performance/usecase"
	retinadapter "gametune/internal/modules/retention/adapter/in"
	retdomain "gametune/internal/modules/retention/domain"
	retservice "gametune/internal/modules/retention/service"
	retusecase "gametune/internal/modules/retention/usecase"
	"gametune/internal/platform/clock"
	"gametune/internal/platform/config"
	"gametune/internal/platform/id"
	"gametune/internal/platform/keylock"
	"gametune/internal/platform/logging"
	"gametune/internal/platform/storage/sqlitedb"
	uiapp "gametune/internal/ui/app"
)

type App struct {
	Config         config.Config
	Logger         hclog.Logger
	GameplayCLI    gameinadapter.CLIHandler
	PerformanceCLI perfinadapter.CLIHandler
	DifficultyCLI  diffinadapter.CLIHandler
	ExperimentCLI  expinadapter.CLIHandler
	MonitoringCLI  moninadapter.CLIHandler
	RetentionCLI   retinadapter.CLIHandler
	GRPC           *grpc.Server

	experiments expin.Usecase
	difficulty  diffin.Usecase
	db          *sql.DB
}

type stores struct {
	performance perfout.Store
	overrides   diffout.OverrideStore
	experiments expout.Store
	samples     expout.SampleStore
	alerts      expout.AlertLog
	db          *sql.DB
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Store == config.StoreMemory {
		return stores{
			performance: perfoutadapter.NewMemoryStore(),
			overrides:   diffoutadapter.NewMemoryOverrideStore(),
			experiments: expoutadapter.NewMemoryStore(),
			samples:     expoutadapter.NewMemorySampleStore(),
			alerts:      expoutadapter.NewMemoryAlertLog(),
		}, nil
	}

	db, err := sqlitedb.Open(cfg.DBPath())
	if err != nil {
		return stores{}, fmt.Errorf("open database: %w", err)
	}
	perf, err := perfoutadapter.NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("new performance store: %w", err)
	}
	overrides, err := diffoutadapter.NewSQLiteOverrideStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("new override store: %w", err)
	}
	exp, err := expoutadapter.NewSQLiteStores(ctx, db)
	if err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("new experiment stores: %w", err)
	}
	return stores{
		performance: perf,
		overrides:   overrides,
		experiments: exp.Experiments,
		samples:     exp.Samples,
		alerts:      exp.Alerts,
		db:          db,
	}, nil
}

// New wires every module. Nothing in here is global: two Apps built from two
// configs share no state.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	clk := clock.SystemClock{}
	ids := id.UUID{}
	locks := keylock.New(cfg.LockTimeout)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	catalog, err := diffoutadapter.NewYAMLCatalog(cfg.CatalogPath)
	if err != nil {
		if st.db != nil {
			_ = st.db.Close()
		}
		return nil, err
	}

	perfUC := perfusecase.NewInteractor(perfservice.NewPerformanceService(clk, ids, st.performance, locks, logger))
	diffUC := diffusecase.NewInteractor(diffservice.NewDifficultyService(clk, catalog, st.overrides, logger), perfUC, logger)
	expUC := expusecase.NewInteractor(expservice.NewExperimentService(clk, ids, st.experiments, st.samples, st.alerts, locks, logger))
	gameUC := gameusecase.NewInteractor(gameservice.NewGameplayService(clk, gameoutadapter.NewMemoryDebugStore(), logger), perfUC, diffUC, expUC)

	monUC := monusecase.NewInteractor(
		monservice.NewMonitorService(clk, logger, monoutadapter.NewLogSink(logger), monoutadapter.NewExperimentLogSink(expUC)),
		expUC,
		cfg.MonitorInterval,
	)
	expUC.Subscribe(monUC)

	retUC := retusecase.NewInteractor(
		retservice.NewSweepService(clk, retdomain.Policy{Retention: cfg.Retention, Interval: cfg.SweepInterval}, logger),
		perfUC, expUC, diffUC,
	)

	return &App{
		Config:         cfg,
		Logger:         logger,
		GameplayCLI:    gameinadapter.NewCLIHandler(gameUC),
		PerformanceCLI: perfinadapter.NewCLIHandler(perfUC),
		DifficultyCLI:  diffinadapter.NewCLIHandler(diffUC),
		ExperimentCLI:  expinadapter.NewCLIHandler(expUC),
		MonitoringCLI:  moninadapter.NewCLIHandler(monUC),
		RetentionCLI:   retinadapter.NewCLIHandler(retUC),
		GRPC:           gamerpc.NewGRPCServer(gamerpc.NewServer(gameUC, expUC), logger),
		experiments:    expUC,
		difficulty:     diffUC,
		db:             st.db,
	}, nil
}

// Serve runs the gRPC endpoint, the experiment monitors and the retention
// sweeper until ctx is done or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("serving", "addr", a.Config.GRPCAddr, "store", a.Config.Store)
		return gamerpc.Serve(ctx, a.GRPC, a.Config.GRPCAddr)
	})
	g.Go(func() error { return a.MonitoringCLI.Run(ctx) })
	g.Go(func() error { return a.RetentionCLI.Run(ctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the database handle, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// RunDashboard opens the terminal dashboard against the local stores.
func RunDashboard(app *App, focus string, interval time.Duration) error {
	return runDashboard(app.experiments, app.difficulty, focus, interval)
}

// RunRemoteDashboard polls a running server; the games tab still reads the
// local catalog.
func RunRemoteDashboard(client *gamerpc.Client, catalogPath, focus string, interval time.Duration) error {
	catalog, err := diffoutadapter.NewYAMLCatalog(catalogPath)
	if err != nil {
		return err
	}
	// Only ListGames is reached, which never touches player history.
	games := diffusecase.NewInteractor(
		diffservice.NewDifficultyService(clock.SystemClock{}, catalog, diffoutadapter.NewMemoryOverrideStore(), nil),
		nil, nil,
	)
	return runDashboard(client, games, focus, interval)
}

func runDashboard(experiments uiapp.ExperimentPort, games uiapp.GamePort, focus string, interval time.Duration) error {
	model := uiapp.NewModel(experiments, games, focus, interval)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
