package models

import (
	"fmt"
	"strings"
	"time"
)

type (
	// Label representa una etiqueta asignada a un Pull Request.
	Label struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Color       string `json:"color"`
		Description string `json:"description,omitempty"`
	}

	// User representa al autor de un PR o al dueño de un repositorio.
	User struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name,omitempty"`
		AvatarURL string `json:"avatar_url,omitempty"`
		HTMLURL   string `json:"html_url,omitempty"`
	}

	// Repository contiene los datos del repositorio al que apunta una rama.
	Repository struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		FullName    string `json:"full_name"`
		Owner       User   `json:"owner"`
		HTMLURL     string `json:"html_url,omitempty"`
		Description string `json:"description,omitempty"`
	}

	// Branch representa una rama base o head de un PR.
	Branch struct {
		Ref  string      `json:"ref"`
		SHA  string      `json:"sha"`
		Repo *Repository `json:"repo,omitempty"`
	}

	// PullRequest es la foto puntual de un PR tal como la devolvió la
	// plataforma. Owner y Repo se derivan una sola vez con Normalize.
	PullRequest struct {
		ID        int64      `json:"id"`
		Number    int        `json:"number"`
		Title     string     `json:"title"`
		Body      string     `json:"body,omitempty"`
		State     string     `json:"state"`
		Draft     bool       `json:"draft,omitempty"`
		User      User       `json:"user"`
		Base      *Branch    `json:"base,omitempty"`
		Head      *Branch    `json:"head,omitempty"`
		Labels    []Label    `json:"labels,omitempty"`
		HTMLURL   string     `json:"html_url,omitempty"`
		CreatedAt time.Time  `json:"created_at,omitempty"`
		UpdatedAt time.Time  `json:"updated_at,omitempty"`
		ClosedAt  *time.Time `json:"closed_at,omitempty"`
		MergedAt  *time.Time `json:"merged_at,omitempty"`

		Platform string `json:"platform,omitempty"`
		Owner    string `json:"owner,omitempty"`
		Repo     string `json:"repo,omitempty"`
	}

	// PRRef identifica un PR monitoreado: plataforma, dueño, repo y número.
	PRRef struct {
		Platform string `json:"platform"`
		Owner    string `json:"owner"`
		Repo     string `json:"repo"`
		Number   int    `json:"number"`
	}
)

// PR lifecycle states as reported by the platforms.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateMerged = "merged"
)

// Normalize deriva Owner y Repo desde la rama base. Debe llamarse una vez
// al construir el snapshot; los valores no cambian después.
func (pr *PullRequest) Normalize() {
	if pr.Base == nil || pr.Base.Repo == nil {
		return
	}
	parts := strings.SplitN(pr.Base.Repo.FullName, "/", 2)
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		pr.Owner = parts[0]
		pr.Repo = parts[1]
		return
	}
	pr.Owner = pr.Base.Repo.Owner.Login
	pr.Repo = pr.Base.Repo.Name
}

// CacheKey retorna la identidad del snapshot: platform:owner/repo#number.
func (pr *PullRequest) CacheKey() string {
	return fmt.Sprintf("%s:%s/%s#%d", pr.Platform, pr.Owner, pr.Repo, pr.Number)
}

// Ref retorna la referencia PRRef equivalente al snapshot.
func (pr *PullRequest) Ref() PRRef {
	return PRRef{Platform: pr.Platform, Owner: pr.Owner, Repo: pr.Repo, Number: pr.Number}
}

// LabelNames retorna solo los nombres de las etiquetas.
func (pr *PullRequest) LabelNames() []string {
	names := make([]string, 0, len(pr.Labels))
	for _, label := range pr.Labels {
		names = append(names, label.Name)
	}
	return names
}

// HasLabel indica si el PR tiene una etiqueta con ese nombre.
func (pr *PullRequest) HasLabel(name string) bool {
	for _, label := range pr.Labels {
		if label.Name == name {
			return true
		}
	}
	return false
}

// IsOpen indica si el PR sigue abierto.
func (pr *PullRequest) IsOpen() bool {
	return pr.State == StateOpen
}

// IsClosed indica si el PR fue cerrado o mergeado.
func (pr *PullRequest) IsClosed() bool {
	return pr.State == StateClosed || pr.State == StateMerged
}

// BaseFullName retorna el full name del repositorio base, si está presente.
func (pr *PullRequest) BaseFullName() string {
	if pr.Base != nil && pr.Base.Repo != nil {
		return pr.Base.Repo.FullName
	}
	return ""
}

// HeadRef retorna el nombre de la rama head, si está presente.
func (pr *PullRequest) HeadRef() string {
	if pr.Head != nil {
		return pr.Head.Ref
	}
	return ""
}

// BaseRef retorna el nombre de la rama base, si está presente.
func (pr *PullRequest) BaseRef() string {
	if pr.Base != nil {
		return pr.Base.Ref
	}
	return ""
}

// CacheKey retorna la clave de caché de la referencia.
func (r PRRef) CacheKey() string {
	return fmt.Sprintf("%s:%s/%s#%d", r.Platform, r.Owner, r.Repo, r.Number)
}

func (r PRRef) String() string {
	return r.CacheKey()
}
