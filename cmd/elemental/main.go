package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"

	"github.com/elementalai/elemental/internal/cache"
	"github.com/elementalai/elemental/internal/cli"
	"github.com/elementalai/elemental/internal/config"
	"github.com/elementalai/elemental/internal/db"
	"github.com/elementalai/elemental/internal/intelligence"
	"github.com/elementalai/elemental/internal/llm"
	"github.com/elementalai/elemental/internal/repository"
	"github.com/elementalai/elemental/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = errors.Join(err, closers[i]())
		}
	}()

	app := &cli.App{Config: &cfg}

	// Detect interactive terminal for the classification prompt.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Services are wired after flag parsing so --db and friends apply.
	app.Wire = func(app *cli.App) error {
		database, err := db.OpenDB(app.Config.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		closers = append(closers, database.Close)

		store, redisClient := wireBoardStore(database, app.Config)
		if redisClient != nil {
			closers = append(closers, redisClient.Close)
		}
		projectRepo := repository.NewSQLiteProjectRepo(database)
		settingsRepo := repository.NewSQLiteSettingsRepo(database)

		var obs service.UseCaseObserver = service.NoopUseCaseObserver{}
		if app.Config.LogUseCases {
			obs = service.NewLogUseCaseObserver(os.Stderr)
		}

		app.Projects = service.NewProjectService(projectRepo, store, obs)
		app.Stats = service.NewStatsService(store)
		app.Workspace = service.NewWorkspace(store, projectRepo, settingsRepo,
			service.WithPersistConfig(app.Config.Persist()),
			service.WithObserver(obs),
			service.WithPersistLog(os.Stderr),
		)
		closers = append(closers, func() error {
			return app.Workspace.Close(context.Background())
		})

		// Without a model the deconstruct service falls back to the playbook.
		var client llm.LLMClient
		if app.Config.LLM.Enabled {
			var observer llm.Observer = llm.NoopObserver{}
			if app.Config.LLM.LogCalls {
				observer = llm.NewLogObserver(os.Stderr)
			}
			client = llm.NewOllamaClient(app.Config.LLM, observer)
		}
		app.Deconstruct = intelligence.NewDeconstructService(client, app.Config.LLM.MaxCandidates)
		return nil
	}

	return cli.NewRootCmd(app).Execute()
}

// wireBoardStore puts the Redis cache in front of SQLite when an address is
// configured.
func wireBoardStore(database *sql.DB, cfg *config.Config) (repository.BoardRepo, *redis.Client) {
	boards := repository.NewSQLiteBoardRepo(database, db.NewSQLiteUnitOfWork(database))
	if cfg.RedisAddr == "" {
		return boards, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return cache.New(boards, client, cfg.RedisTTL), client
}
