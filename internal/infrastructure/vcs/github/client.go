package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/domain/ports"
	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

var _ ports.PlatformClient = (*GitHubClient)(nil)

type PullRequestsService interface {
	Get(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
	Edit(ctx context.Context, owner, repo string, number int, pr *github.PullRequest) (*github.PullRequest, *github.Response, error)
}

type IssuesService interface {
	ListLabelsByIssue(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.Label, *github.Response, error)
	AddLabelsToIssue(ctx context.Context, owner, repo string, number int, labels []string) ([]*github.Label, *github.Response, error)
	RemoveLabelForIssue(ctx context.Context, owner, repo string, number int, label string) (*github.Response, error)
	CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
}

// GitHubClient implementa ports.PlatformClient sobre la API REST de GitHub.
type GitHubClient struct {
	prService     PullRequestsService
	issuesService IssuesService
}

// NewGitHubClient crea un cliente de GitHub. Si apiURL no está vacío se usa
// como base (GitHub Enterprise); si token no está vacío las llamadas van
// autenticadas vía OAuth2.
func NewGitHubClient(token, apiURL string) (*GitHubClient, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	gc := github.NewClient(httpClient)
	if apiURL != "" {
		var err error
		gc, err = gc.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("error al configurar la URL base de GitHub: %w", err)
		}
	}

	return NewGitHubClientWithServices(gc.PullRequests, gc.Issues), nil
}

// NewGitHubClientWithServices crea un cliente con los servicios inyectados.
func NewGitHubClientWithServices(prService PullRequestsService, issuesService IssuesService) *GitHubClient {
	return &GitHubClient{
		prService:     prService,
		issuesService: issuesService,
	}
}

func (ghc *GitHubClient) Name() string {
	return "github"
}

// GetPRDetails obtiene los datos completos de un PR de GitHub.
func (ghc *GitHubClient) GetPRDetails(ctx context.Context, owner, repo string, number int) (*models.PullRequest, error) {
	githubPR, _, err := ghc.prService.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("error al obtener el PR %d de GitHub: %w", number, err)
	}

	if githubPR == nil {
		return nil, fmt.Errorf("PR %d no encontrado en GitHub", number)
	}

	return convertPR(githubPR), nil
}

// GetPRLabels obtiene las etiquetas de un PR de GitHub.
func (ghc *GitHubClient) GetPRLabels(ctx context.Context, owner, repo string, number int) ([]models.Label, error) {
	githubLabels, _, err := ghc.issuesService.ListLabelsByIssue(ctx, owner, repo, number, nil)
	if err != nil {
		return nil, fmt.Errorf("error al obtener las etiquetas del PR %d de GitHub: %w", number, err)
	}

	labels := make([]models.Label, 0, len(githubLabels))
	for _, l := range githubLabels {
		labels = append(labels, convertLabel(l))
	}
	return labels, nil
}

// GetAuthorPRs lista los PRs de un repositorio filtrados por autor. GitHub no
// filtra por autor en el listado de pulls, así que el filtro es del lado del
// cliente.
func (ghc *GitHubClient) GetAuthorPRs(ctx context.Context, owner, repo, author, state string, page, perPage int) ([]*models.PullRequest, error) {
	if state == "" {
		state = "open"
	}
	opts := &github.PullRequestListOptions{
		State:     state,
		Sort:      "created",
		Direction: "desc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	githubPRs, _, err := ghc.prService.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("error al listar los PRs de %s/%s en GitHub: %w", owner, repo, err)
	}

	var prs []*models.PullRequest
	for _, githubPR := range githubPRs {
		if !strings.EqualFold(githubPR.GetUser().GetLogin(), author) {
			continue
		}
		prs = append(prs, convertPR(githubPR))
	}
	return prs, nil
}

// AddLabels agrega etiquetas a un PR de GitHub.
func (ghc *GitHubClient) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]models.Label, error) {
	githubLabels, _, err := ghc.issuesService.AddLabelsToIssue(ctx, owner, repo, number, labels)
	if err != nil {
		return nil, fmt.Errorf("error al agregar etiquetas al PR %d en GitHub: %w", number, err)
	}

	result := make([]models.Label, 0, len(githubLabels))
	for _, l := range githubLabels {
		result = append(result, convertLabel(l))
	}
	return result, nil
}

// RemoveLabel quita una etiqueta de un PR de GitHub.
func (ghc *GitHubClient) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	_, err := ghc.issuesService.RemoveLabelForIssue(ctx, owner, repo, number, label)
	if err != nil {
		return fmt.Errorf("error al quitar la etiqueta %q del PR %d en GitHub: %w", label, number, err)
	}
	return nil
}

// AddComment agrega un comentario a un PR de GitHub.
func (ghc *GitHubClient) AddComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	_, _, err := ghc.issuesService.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return fmt.Errorf("error al comentar el PR %d en GitHub: %w", number, err)
	}
	return nil
}

// ClosePR cierra un PR de GitHub.
func (ghc *GitHubClient) ClosePR(ctx context.Context, owner, repo string, number int) error {
	prInput := &github.PullRequest{State: github.Ptr("closed")}
	_, _, err := ghc.prService.Edit(ctx, owner, repo, number, prInput)
	if err != nil {
		return fmt.Errorf("error al cerrar el PR %d en GitHub: %w", number, err)
	}
	return nil
}

func convertPR(githubPR *github.PullRequest) *models.PullRequest {
	pr := &models.PullRequest{
		ID:        githubPR.GetID(),
		Number:    githubPR.GetNumber(),
		Title:     githubPR.GetTitle(),
		Body:      githubPR.GetBody(),
		State:     githubPR.GetState(),
		Draft:     githubPR.GetDraft(),
		HTMLURL:   githubPR.GetHTMLURL(),
		CreatedAt: githubPR.GetCreatedAt().Time,
		UpdatedAt: githubPR.GetUpdatedAt().Time,
		Platform:  "github",
	}

	// GitHub reporta los mergeados como "closed"; el merged_at distingue.
	if pr.State == models.StateClosed && githubPR.MergedAt != nil {
		pr.State = models.StateMerged
	}
	if githubPR.ClosedAt != nil {
		t := githubPR.GetClosedAt().Time
		pr.ClosedAt = &t
	}
	if githubPR.MergedAt != nil {
		t := githubPR.GetMergedAt().Time
		pr.MergedAt = &t
	}

	if u := githubPR.GetUser(); u != nil {
		pr.User = convertUser(u)
	}
	if base := githubPR.GetBase(); base != nil {
		pr.Base = convertBranch(base)
	}
	if head := githubPR.GetHead(); head != nil {
		pr.Head = convertBranch(head)
	}
	for _, l := range githubPR.Labels {
		pr.Labels = append(pr.Labels, convertLabel(l))
	}

	pr.Normalize()
	return pr
}

func convertUser(u *github.User) models.User {
	return models.User{
		ID:        u.GetID(),
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		AvatarURL: u.GetAvatarURL(),
		HTMLURL:   u.GetHTMLURL(),
	}
}

func convertBranch(b *github.PullRequestBranch) *models.Branch {
	branch := &models.Branch{
		Ref: b.GetRef(),
		SHA: b.GetSHA(),
	}
	if r := b.GetRepo(); r != nil {
		branch.Repo = &models.Repository{
			ID:          r.GetID(),
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			HTMLURL:     r.GetHTMLURL(),
			Description: r.GetDescription(),
		}
		if o := r.GetOwner(); o != nil {
			branch.Repo.Owner = convertUser(o)
		}
	}
	return branch
}

func convertLabel(l *github.Label) models.Label {
	return models.Label{
		ID:          l.GetID(),
		Name:        l.GetName(),
		Color:       l.GetColor(),
		Description: l.GetDescription(),
	}
}
