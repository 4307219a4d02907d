package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Tomas-vilte/MateWatch/internal/cli/command/authors"
	"github.com/Tomas-vilte/MateWatch/internal/cli/command/prs"
	"github.com/Tomas-vilte/MateWatch/internal/cli/command/rules"
	"github.com/Tomas-vilte/MateWatch/internal/cli/command/stats"
	"github.com/Tomas-vilte/MateWatch/internal/cli/command/watch"
	cfg "github.com/Tomas-vilte/MateWatch/internal/config"
	"github.com/Tomas-vilte/MateWatch/internal/i18n"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/cache"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/ratelimit"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/vcs/gitee"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/vcs/github"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/vcs/registry"
	"github.com/Tomas-vilte/MateWatch/internal/logger"
	"github.com/Tomas-vilte/MateWatch/internal/services"
	"github.com/Tomas-vilte/MateWatch/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Error iniciando la cli: %v", err)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func initializeApp() (*cli.Command, error) {
	debug, verbose := scanLogFlags(os.Args[1:])
	logger.Initialize(debug, verbose)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("no se pudo obtener el directorio del usuario: %w", err)
	}

	cfgApp, err := cfg.LoadConfig(homeDir)
	if err != nil {
		return nil, err
	}

	translations, err := i18n.NewTranslations(cfgApp.Language, "")
	if err != nil {
		return nil, fmt.Errorf("error al cargar las traducciones: %w", err)
	}

	platformRegistry := registry.NewRegistry()
	if platformCfg, ok := cfgApp.Platform("github"); ok {
		client, err := github.NewGitHubClient(platformCfg.AccessToken, platformCfg.APIURL)
		if err != nil {
			return nil, err
		}
		if err := platformRegistry.Register(client); err != nil {
			return nil, err
		}
	}
	if platformCfg, ok := cfgApp.Platform("gitee"); ok {
		if err := platformRegistry.Register(gitee.NewGiteeClient(platformCfg.AccessToken, platformCfg.APIURL)); err != nil {
			return nil, err
		}
	}

	snapshotCache := cache.New(cfgApp.CacheTTL())
	gate := ratelimit.NewGate(cfgApp.RequestsPerSecond, int64(cfgApp.MaxConcurrentRequests))

	fetcher := services.NewFetcher(
		services.WithRegistry(platformRegistry),
		services.WithCache(snapshotCache),
		services.WithGate(gate),
	)

	executor := services.NewActionExecutor(
		services.WithMutator(fetcher),
	)

	engine := services.NewEngine(context.Background(),
		services.WithRuleStore(cfgApp),
		services.WithExecutor(executor),
		services.WithAutomationConfig(cfgApp.AutomationConfig()),
	)

	monitor := services.NewMonitor(
		services.WithMonitorConfig(cfgApp),
		services.WithFetcher(fetcher),
		services.WithEngine(engine),
	)

	commands := []*cli.Command{
		watch.NewWatchCommandFactory(monitor, engine).CreateCommand(translations),
		prs.NewPRCommandFactory(cfgApp, monitor).CreateCommand(translations),
		authors.NewAuthorCommandFactory(cfgApp).CreateCommand(translations),
		rules.NewRuleCommandFactory(engine).CreateCommand(translations),
		stats.NewStatsCommandFactory(engine).CreateCommand(translations),
	}

	return &cli.Command{
		Name:        "matewatch",
		Usage:       translations.GetMessage("app_usage", 0, nil),
		Version:     version.Version,
		Description: translations.GetMessage("app_description", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable info logging",
			},
		},
		Commands:              commands,
		EnableShellCompletion: true,
	}, nil
}

// scanLogFlags reads the logging flags before the cli parses anything so
// the logger is ready during wiring.
func scanLogFlags(args []string) (debug, verbose bool) {
	for _, arg := range args {
		switch arg {
		case "--debug":
			debug = true
		case "--verbose":
			verbose = true
		}
	}
	return debug, verbose
}
