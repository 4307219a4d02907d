package rules

import (
	"context"
	"fmt"

	"github.com/Tomas-vilte/MateWatch/internal/i18n"
	"github.com/Tomas-vilte/MateWatch/internal/services"
	"github.com/urfave/cli/v3"
)

type RuleCommandFactory struct {
	engine *services.Engine
}

func NewRuleCommandFactory(engine *services.Engine) *RuleCommandFactory {
	return &RuleCommandFactory{engine: engine}
}

func (f *RuleCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "rule",
		Usage: t.GetMessage("rule_usage", 0, nil),
		Commands: []*cli.Command{
			f.newListCommand(t),
			f.newEnableCommand(t),
			f.newDisableCommand(t),
			f.newRemoveCommand(t),
			f.newHistoryCommand(t),
		},
	}
}

func idFlag() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "rule identifier",
			Required: true,
		},
	}
}

func (f *RuleCommandFactory) newListCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   t.GetMessage("rule_list_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "enabled",
				Usage: "only show enabled rules",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rules := f.engine.Rules(command.Bool("enabled"))
			if len(rules) == 0 {
				fmt.Println(t.GetMessage("rule_list_empty", 0, nil))
				return nil
			}

			fmt.Println(t.GetMessage("rule_list_header", len(rules), map[string]interface{}{
				"Count": len(rules),
			}))
			for _, rule := range rules {
				state := "disabled"
				if rule.Enabled {
					state = "enabled"
				}
				fmt.Printf("  - %s (%s, priority %d, trigger %s): %s\n",
					rule.ID, state, rule.Priority, rule.Trigger, rule.Name)
			}
			return nil
		},
	}
}

func (f *RuleCommandFactory) newEnableCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "enable",
		Usage: t.GetMessage("rule_enable_usage", 0, nil),
		Flags: idFlag(),
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.String("id")
			if err := f.engine.EnableRule(ctx, id); err != nil {
				return err
			}
			fmt.Println(t.GetMessage("rule_enabled", 0, map[string]interface{}{"ID": id}))
			return nil
		},
	}
}

func (f *RuleCommandFactory) newDisableCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "disable",
		Usage: t.GetMessage("rule_disable_usage", 0, nil),
		Flags: idFlag(),
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.String("id")
			if err := f.engine.DisableRule(ctx, id); err != nil {
				return err
			}
			fmt.Println(t.GetMessage("rule_disabled", 0, map[string]interface{}{"ID": id}))
			return nil
		},
	}
}

func (f *RuleCommandFactory) newRemoveCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Usage:   t.GetMessage("rule_remove_usage", 0, nil),
		Flags:   idFlag(),
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.String("id")
			if err := f.engine.RemoveRule(ctx, id); err != nil {
				return err
			}
			fmt.Println(t.GetMessage("rule_removed", 0, map[string]interface{}{"ID": id}))
			return nil
		},
	}
}

func (f *RuleCommandFactory) newHistoryCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: t.GetMessage("rule_history_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "filter by rule identifier",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum number of records",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			records := f.engine.History(command.String("id"), int(command.Int("limit")))
			for _, record := range records {
				status := "ok"
				if !record.Success {
					status = "failed: " + record.ErrorMessage
				}
				fmt.Printf("  %s  %s  %s/%d  %.2fs  %s\n",
					record.ExecutedAt.Format("2006-01-02 15:04:05"),
					record.RuleID,
					record.PRInfo.Repo,
					record.PRInfo.PRNumber,
					record.ExecutionTime,
					status)
			}
			return nil
		},
	}
}
