package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sheetql/sheetql/internal/application/importer"
	"github.com/sheetql/sheetql/internal/application/query"
	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/infrastructure/ai"
	"github.com/sheetql/sheetql/internal/infrastructure/config"
	"github.com/sheetql/sheetql/internal/infrastructure/datastore"
	"github.com/sheetql/sheetql/internal/infrastructure/ingest"
	"github.com/sheetql/sheetql/internal/infrastructure/safety"
	"github.com/sheetql/sheetql/internal/pkg/logger"
	"github.com/sheetql/sheetql/internal/ports"
)

// Container wires application services with infrastructure adapters.
type Container struct {
	Config       domain.Config
	QueryService *query.Service
	Importer     *importer.Service
	AuditStore   ports.AuditRepository
	Logger       ports.Logger

	pool *pgxpool.Pool
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, configPath string, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader(configPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewStd(verbose)

	// The catalog always lives in the local SQLite store; Postgres mode only
	// changes which database the generated SQL executes against.
	dataDB, err := datastore.Open(cfg.Database.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}
	sheetStore, err := datastore.NewSpreadsheetStore(dataDB)
	if err != nil {
		return nil, fmt.Errorf("init spreadsheet store: %w", err)
	}

	container := &Container{
		Config:     cfg,
		AuditStore: datastore.NewAuditStore(cfg.Audit.Path),
		Logger:     log,
	}

	var executor ports.QueryExecutor
	switch cfg.Database.Driver {
	case "", "sqlite":
		executor = datastore.NewSQLExecutor(dataDB, cfg.Database.MaxRows)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		container.pool = pool
		executor = datastore.NewPgxExecutor(pool, cfg.Database.MaxRows)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	validator, err := safety.NewValidator(cfg.Safety.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load safety rules: %w", err)
	}

	promptBuilder, err := ai.NewTemplateBuilder()
	if err != nil {
		return nil, fmt.Errorf("compile prompt template: %w", err)
	}

	container.QueryService = &query.Service{
		Prompt:    promptBuilder,
		Provider:  ai.NewClient(cfg.Provider, log),
		Validator: validator,
		Executor:  executor,
		Audit:     container.AuditStore,
		Sheets:    sheetStore,
		Logger:    log,
	}

	container.Importer = &importer.Service{
		Decoders: map[string]ports.SheetDecoder{
			".csv":  ingest.NewCSVDecoder(),
			".xlsx": ingest.NewExcelDecoder(),
		},
		Sheets: sheetStore,
		Logger: log,
	}

	return container, nil
}

// Close releases pooled resources.
func (c *Container) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
