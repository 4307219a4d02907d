package i18n

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

type Translations struct {
	bundle   *i18n.Bundle
	localize *i18n.Localizer
}

func NewTranslations(defaultLang string, localesDir string) (*Translations, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	bundle.MustParseMessageFileBytes([]byte(defaultMessages), "default.en.toml")

	if localesDir == "" {
		localesDir = "locales"
	}
	files, err := filepath.Glob(filepath.Join(localesDir, "active.*.toml"))
	if err != nil {
		return nil, fmt.Errorf("error reading locales: %w", err)
	}

	for _, file := range files {
		if _, err := bundle.LoadMessageFile(file); err != nil {
			return nil, fmt.Errorf("error loading locale file %s: %w", file, err)
		}
	}

	localize := i18n.NewLocalizer(bundle, defaultLang)

	return &Translations{
		bundle:   bundle,
		localize: localize,
	}, nil
}

func (t *Translations) SetLanguage(lang string) error {
	for _, tag := range t.bundle.LanguageTags() {
		if tag.String() == lang {
			t.localize = i18n.NewLocalizer(t.bundle, lang)
			return nil
		}
	}
	return fmt.Errorf("language '%s' not supported", lang)
}

func (t *Translations) GetMessage(messageID string, count int, templateData map[string]interface{}) string {
	localized, err := t.localize.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID: messageID,
		},
		PluralCount:  count,
		TemplateData: templateData,
	})
	if err != nil {
		return "Translation missing: " + messageID
	}
	return localized
}

var defaultMessages = `
	[watch_starting]
	other = "Starting PR monitor..."

	[watch_stopping]
	other = "Shutting down, waiting for in-flight work..."

	[watch_stopped]
	other = "PR monitor stopped"

	[pr_added]
	other = "Now monitoring {{.Platform}} PR {{.Owner}}/{{.Repo}}#{{.Number}}"

	[pr_removed]
	other = "Stopped monitoring {{.Platform}} PR {{.Owner}}/{{.Repo}}#{{.Number}}"

	[pr_list_empty]
	other = "No pull requests are being monitored.\nUse 'matewatch pr add' to start monitoring one"

	[pr_list_header]
	one = "{{.Count}} pull request monitored:"
	other = "{{.Count}} pull requests monitored:"

	[author_followed]
	other = "Now following PRs by {{.Author}} in {{.Repo}} ({{.Platform}})"

	[author_unfollowed]
	other = "Stopped following {{.Author}} in {{.Repo}} ({{.Platform}})"

	[author_list_empty]
	other = "No authors are being followed"

	[rule_list_empty]
	other = "No automation rules configured"

	[rule_enabled]
	other = "Rule '{{.ID}}' enabled"

	[rule_disabled]
	other = "Rule '{{.ID}}' disabled"

	[rule_removed]
	other = "Rule '{{.ID}}' removed"

	[stats_header]
	other = "Automation statistics"

	[app_usage]
	other = "Monitor pull requests and automate reactions to their changes"

	[app_description]
	other = "matewatch polls the pull requests you track on GitHub and Gitee, detects label and state changes and runs your automation rules against them"

	[watch_usage]
	other = "Start the monitoring loop"

	[pr_usage]
	other = "Manage the monitored pull requests"

	[pr_add_usage]
	other = "Start monitoring a pull request"

	[pr_remove_usage]
	other = "Stop monitoring a pull request"

	[pr_list_usage]
	other = "List the monitored pull requests"

	[author_usage]
	other = "Manage followed authors"

	[author_follow_usage]
	other = "Follow an author's open PRs in a repository"

	[author_unfollow_usage]
	other = "Stop following an author"

	[author_list_usage]
	other = "List the followed authors"

	[author_list_header]
	one = "{{.Count}} author followed:"
	other = "{{.Count}} authors followed:"

	[rule_usage]
	other = "Manage automation rules"

	[rule_list_usage]
	other = "List the automation rules"

	[rule_list_header]
	one = "{{.Count}} automation rule:"
	other = "{{.Count}} automation rules:"

	[rule_enable_usage]
	other = "Enable an automation rule"

	[rule_disable_usage]
	other = "Disable an automation rule"

	[rule_remove_usage]
	other = "Remove an automation rule"

	[rule_history_usage]
	other = "Show recent rule executions"

	[stats_usage]
	other = "Show automation statistics"
	`
