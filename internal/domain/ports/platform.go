package ports

import (
	"context"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
)

// PlatformClient define los métodos comunes para interactuar con las APIs
// de las plataformas de hosting de código (Gitee, GitHub, etc.). Un error
// en cualquier método representa un fallo recuperable: red, auth o not
// found; el núcleo no distingue subtipos más allá de eso.
type PlatformClient interface {
	// Name retorna el nombre de la plataforma ("gitee", "github").
	Name() string

	// GetPRDetails obtiene el snapshot completo de un PR.
	GetPRDetails(ctx context.Context, owner, repo string, number int) (*models.PullRequest, error)

	// GetPRLabels obtiene las etiquetas actuales de un PR.
	GetPRLabels(ctx context.Context, owner, repo string, number int) ([]models.Label, error)

	// GetAuthorPRs lista los PRs de un autor en un repositorio.
	GetAuthorPRs(ctx context.Context, owner, repo, author, state string, page, perPage int) ([]*models.PullRequest, error)

	// AddLabels agrega etiquetas a un PR.
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]models.Label, error)

	// RemoveLabel quita una etiqueta de un PR.
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error

	// AddComment agrega un comentario a un PR.
	AddComment(ctx context.Context, owner, repo string, number int, body string) error

	// ClosePR cierra un PR.
	ClosePR(ctx context.Context, owner, repo string, number int) error
}
