package gitee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
)

const defaultBaseURL = "https://gitee.com/api/v5"

// GiteeClient implementa ports.PlatformClient sobre la API v5 de Gitee.
// No existe un SDK de Go mantenido para Gitee, así que las llamadas van
// directo por HTTP.
type GiteeClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewGiteeClient crea un cliente de Gitee. Si apiURL está vacío se usa la
// instancia pública.
func NewGiteeClient(token, apiURL string) *GiteeClient {
	baseURL := strings.TrimRight(apiURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GiteeClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (gc *GiteeClient) Name() string {
	return "gitee"
}

// GetPRDetails obtiene los datos completos de un PR de Gitee.
func (gc *GiteeClient) GetPRDetails(ctx context.Context, owner, repo string, number int) (*models.PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)

	var pr models.PullRequest
	if err := gc.do(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, fmt.Errorf("error al obtener el PR %d de Gitee: %w", number, err)
	}

	pr.Platform = "gitee"
	pr.Normalize()
	return &pr, nil
}

// GetPRLabels obtiene las etiquetas de un PR de Gitee.
func (gc *GiteeClient) GetPRLabels(ctx context.Context, owner, repo string, number int) ([]models.Label, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/labels", owner, repo, number)

	var labels []models.Label
	if err := gc.do(ctx, http.MethodGet, path, nil, &labels); err != nil {
		return nil, fmt.Errorf("error al obtener las etiquetas del PR %d de Gitee: %w", number, err)
	}
	return labels, nil
}

// GetAuthorPRs lista los PRs de un repositorio filtrados por autor. El
// endpoint de Gitee no filtra por autor, así que el filtro es del lado del
// cliente.
func (gc *GiteeClient) GetAuthorPRs(ctx context.Context, owner, repo, author, state string, page, perPage int) ([]*models.PullRequest, error) {
	if state == "" {
		state = "open"
	}
	query := url.Values{}
	query.Set("state", state)
	query.Set("sort", "created")
	query.Set("direction", "desc")
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	path := fmt.Sprintf("/repos/%s/%s/pulls?%s", owner, repo, query.Encode())

	var all []*models.PullRequest
	if err := gc.do(ctx, http.MethodGet, path, nil, &all); err != nil {
		return nil, fmt.Errorf("error al listar los PRs de %s/%s en Gitee: %w", owner, repo, err)
	}

	var prs []*models.PullRequest
	for _, pr := range all {
		if !strings.EqualFold(pr.User.Login, author) {
			continue
		}
		pr.Platform = "gitee"
		pr.Normalize()
		prs = append(prs, pr)
	}
	return prs, nil
}

// AddLabels agrega etiquetas a un PR de Gitee. El endpoint espera el arreglo
// de nombres como cuerpo JSON directo.
func (gc *GiteeClient) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]models.Label, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/labels", owner, repo, number)

	var result []models.Label
	if err := gc.do(ctx, http.MethodPost, path, labels, &result); err != nil {
		return nil, fmt.Errorf("error al agregar etiquetas al PR %d en Gitee: %w", number, err)
	}
	return result, nil
}

// RemoveLabel quita una etiqueta de un PR de Gitee.
func (gc *GiteeClient) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/labels/%s", owner, repo, number, url.PathEscape(label))

	if err := gc.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("error al quitar la etiqueta %q del PR %d en Gitee: %w", label, number, err)
	}
	return nil
}

// AddComment agrega un comentario a un PR de Gitee.
func (gc *GiteeClient) AddComment(ctx context.Context, owner, repo string, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", owner, repo, number)
	payload := map[string]string{"body": body}

	if err := gc.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("error al comentar el PR %d en Gitee: %w", number, err)
	}
	return nil
}

// ClosePR cierra un PR de Gitee.
func (gc *GiteeClient) ClosePR(ctx context.Context, owner, repo string, number int) error {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	payload := map[string]string{"state": "closed"}

	if err := gc.do(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("error al cerrar el PR %d en Gitee: %w", number, err)
	}
	return nil
}

// do arma la petición HTTP, agrega el token si existe y decodifica la
// respuesta JSON en out cuando out no es nil.
func (gc *GiteeClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error al serializar el cuerpo de la petición: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, gc.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error al crear la petición: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if gc.token != "" {
		req.Header.Set("Authorization", "token "+gc.token)
	}

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("la API de Gitee respondió %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error al decodificar la respuesta de Gitee: %w", err)
	}
	return nil
}
