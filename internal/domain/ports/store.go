package ports

import (
	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
)

// RuleStore es el documento externo donde el motor persiste sus reglas.
// La implementación real es el archivo de configuración de la app.
type RuleStore interface {
	// AutomationRules retorna las reglas persistidas.
	AutomationRules() []models.AutomationRule

	// SetAutomationRules reemplaza y persiste la lista completa de reglas.
	SetAutomationRules(rules []models.AutomationRule) error
}
