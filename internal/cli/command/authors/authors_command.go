package authors

import (
	"context"
	"fmt"

	"github.com/Tomas-vilte/MateWatch/internal/config"
	"github.com/Tomas-vilte/MateWatch/internal/i18n"
	"github.com/urfave/cli/v3"
)

type AuthorCommandFactory struct {
	cfg *config.Config
}

func NewAuthorCommandFactory(cfg *config.Config) *AuthorCommandFactory {
	return &AuthorCommandFactory{cfg: cfg}
}

func (f *AuthorCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "author",
		Usage: t.GetMessage("author_usage", 0, nil),
		Commands: []*cli.Command{
			f.newFollowCommand(t),
			f.newUnfollowCommand(t),
			f.newListCommand(t),
		},
	}
}

func authorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "platform",
			Aliases: []string{"p"},
			Value:   "gitee",
			Usage:   "platform hosting the repository (github or gitee)",
		},
		&cli.StringFlag{
			Name:     "author",
			Aliases:  []string{"a"},
			Usage:    "author login to follow",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "repo",
			Aliases:  []string{"r"},
			Usage:    "repository in owner/repo format",
			Required: true,
		},
	}
}

func authorFromFlags(command *cli.Command) config.FollowedAuthor {
	return config.FollowedAuthor{
		Platform: command.String("platform"),
		Author:   command.String("author"),
		Repo:     command.String("repo"),
	}
}

func (f *AuthorCommandFactory) newFollowCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "follow",
		Usage: t.GetMessage("author_follow_usage", 0, nil),
		Flags: authorFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			author := authorFromFlags(command)
			if err := f.cfg.AddFollowedAuthor(author); err != nil {
				return err
			}

			fmt.Println(t.GetMessage("author_followed", 0, map[string]interface{}{
				"Author":   author.Author,
				"Repo":     author.Repo,
				"Platform": author.Platform,
			}))
			return nil
		},
	}
}

func (f *AuthorCommandFactory) newUnfollowCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "unfollow",
		Usage: t.GetMessage("author_unfollow_usage", 0, nil),
		Flags: authorFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			author := authorFromFlags(command)
			if err := f.cfg.RemoveFollowedAuthor(author); err != nil {
				return err
			}

			fmt.Println(t.GetMessage("author_unfollowed", 0, map[string]interface{}{
				"Author":   author.Author,
				"Repo":     author.Repo,
				"Platform": author.Platform,
			}))
			return nil
		},
	}
}

func (f *AuthorCommandFactory) newListCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   t.GetMessage("author_list_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			followed := f.cfg.Followed()
			if len(followed) == 0 {
				fmt.Println(t.GetMessage("author_list_empty", 0, nil))
				return nil
			}

			fmt.Println(t.GetMessage("author_list_header", len(followed), map[string]interface{}{
				"Count": len(followed),
			}))
			for _, author := range followed {
				fmt.Printf("  - %s @ %s (%s)\n", author.Author, author.Repo, author.Platform)
			}
			return nil
		},
	}
}
