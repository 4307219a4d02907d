package stats

import (
	"context"
	"fmt"

	"github.com/Tomas-vilte/MateWatch/internal/i18n"
	"github.com/Tomas-vilte/MateWatch/internal/services"
	"github.com/urfave/cli/v3"
)

type StatsCommandFactory struct {
	engine *services.Engine
}

func NewStatsCommandFactory(engine *services.Engine) *StatsCommandFactory {
	return &StatsCommandFactory{engine: engine}
}

func (f *StatsCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: t.GetMessage("stats_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			stats := f.engine.Statistics()

			fmt.Println(t.GetMessage("stats_header", 0, nil))
			fmt.Printf("  rules:       %d (%d enabled)\n", stats.TotalRules, stats.EnabledRules)
			fmt.Printf("  executions:  %d\n", stats.TotalExecutions)
			fmt.Printf("  successes:   %d\n", stats.TotalSuccesses)
			fmt.Printf("  success rate: %.1f%%\n", stats.SuccessRate*100)
			fmt.Printf("  history:     %d records\n", stats.HistoryCount)
			return nil
		},
	}
}
