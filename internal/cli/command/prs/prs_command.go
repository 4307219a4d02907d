package prs

import (
	"context"
	"fmt"

	"github.com/Tomas-vilte/MateWatch/internal/config"
	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/i18n"
	"github.com/Tomas-vilte/MateWatch/internal/services"
	"github.com/urfave/cli/v3"
)

type PRCommandFactory struct {
	cfg     *config.Config
	monitor *services.Monitor
}

func NewPRCommandFactory(cfg *config.Config, monitor *services.Monitor) *PRCommandFactory {
	return &PRCommandFactory{
		cfg:     cfg,
		monitor: monitor,
	}
}

func (f *PRCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "pr",
		Usage: t.GetMessage("pr_usage", 0, nil),
		Commands: []*cli.Command{
			f.newAddCommand(t),
			f.newRemoveCommand(t),
			f.newListCommand(t),
		},
	}
}

func refFlags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "platform",
			Aliases: []string{"p"},
			Value:   "gitee",
			Usage:   "platform hosting the PR (github or gitee)",
		},
		&cli.StringFlag{
			Name:     "owner",
			Aliases:  []string{"o"},
			Usage:    "repository owner",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "repo",
			Aliases:  []string{"r"},
			Usage:    "repository name",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "number",
			Aliases:  []string{"n"},
			Usage:    "pull request number",
			Required: true,
		},
	}
}

func refFromFlags(command *cli.Command) models.PRRef {
	return models.PRRef{
		Platform: command.String("platform"),
		Owner:    command.String("owner"),
		Repo:     command.String("repo"),
		Number:   int(command.Int("number")),
	}
}

func (f *PRCommandFactory) newAddCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: t.GetMessage("pr_add_usage", 0, nil),
		Flags: refFlags(t),
		Action: func(ctx context.Context, command *cli.Command) error {
			ref := refFromFlags(command)
			if _, err := f.monitor.AddPR(ctx, ref); err != nil {
				return err
			}

			fmt.Println(t.GetMessage("pr_added", 0, map[string]interface{}{
				"Platform": ref.Platform,
				"Owner":    ref.Owner,
				"Repo":     ref.Repo,
				"Number":   ref.Number,
			}))
			return nil
		},
	}
}

func (f *PRCommandFactory) newRemoveCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Usage:   t.GetMessage("pr_remove_usage", 0, nil),
		Flags:   refFlags(t),
		Action: func(ctx context.Context, command *cli.Command) error {
			ref := refFromFlags(command)
			if err := f.monitor.RemovePR(ctx, ref); err != nil {
				return err
			}

			fmt.Println(t.GetMessage("pr_removed", 0, map[string]interface{}{
				"Platform": ref.Platform,
				"Owner":    ref.Owner,
				"Repo":     ref.Repo,
				"Number":   ref.Number,
			}))
			return nil
		},
	}
}

func (f *PRCommandFactory) newListCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   t.GetMessage("pr_list_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			refs := f.cfg.PRs()
			if len(refs) == 0 {
				fmt.Println(t.GetMessage("pr_list_empty", 0, nil))
				return nil
			}

			fmt.Println(t.GetMessage("pr_list_header", len(refs), map[string]interface{}{
				"Count": len(refs),
			}))
			for _, ref := range refs {
				fmt.Printf("  - %s\n", ref.String())
			}
			return nil
		},
	}
}
