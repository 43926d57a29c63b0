package main

import (
	"Agora/config"
	"Agora/pkg/database"
	"Agora/pkg/log"
	"Agora/pkg/server"
	"Agora/pkg/snowflake"
	"Agora/service"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

type App struct {
	Server    *server.AppProvider
	Reconcile service.IReconcileService
}

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	path := fmt.Sprintf("configs/config.%s.yaml", env)
	cfg := config.New(path)
	log.SetLevel(cfg.Debug())

	if err := snowflake.Init(cfg.Snowflake.Node); err != nil {
		log.L.Fatal("init snowflake", zap.Error(err))
	}

	cliApp := &cli.App{
		Name:  "api-server",
		Usage: "agora community engagement service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start http server",
				Action: func(ctx *cli.Context) error {
					app, cleanup, err := InitApp(cfg)
					if err != nil {
						return err
					}
					defer cleanup()
					return server.Run(ctx, app.Server)
				},
			},
			{
				Name:  "migrate",
				Usage: "create or update tables",
				Action: func(ctx *cli.Context) error {
					if err := database.Migrate(database.NewDB(cfg)); err != nil {
						return err
					}
					log.L.Info("migrate done")
					return nil
				},
			},
			{
				Name:  "reconcile",
				Usage: "recompute like/comment/reply counters from facts",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "post", Usage: "post id"},
					&cli.BoolFlag{Name: "all", Usage: "all posts"},
				},
				Action: func(ctx *cli.Context) error {
					if !ctx.Bool("all") && ctx.Uint64("post") == 0 {
						return errors.New("either --post or --all is required")
					}
					app, cleanup, err := InitApp(cfg)
					if err != nil {
						return err
					}
					defer cleanup()

					var corrected int
					if ctx.Bool("all") {
						corrected, err = app.Reconcile.ReconcileAll(ctx.Context)
					} else {
						corrected, err = app.Reconcile.Reconcile(ctx.Context, ctx.Uint64("post"))
					}
					if err != nil {
						return err
					}
					log.L.Info("reconcile done", zap.Int("corrected", corrected))
					return nil
				},
			},
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		log.L.Fatal("failed to run command", zap.Error(err))
	}
}
