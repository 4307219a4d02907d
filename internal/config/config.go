package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domainerrors "github.com/Tomas-vilte/MateWatch/internal/domain/errors"
	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
)

type (
	// Config es el documento de configuración completo de la app. Se
	// carga y guarda entero como JSON; todas las mutaciones pasan por
	// los métodos del tipo, protegidas por un mutex.
	Config struct {
		Language string `json:"language"`

		Platforms map[string]PlatformConfig `json:"platforms"`

		PullRequests    []models.PRRef   `json:"pull_request_lists"`
		FollowedAuthors []FollowedAuthor `json:"followed_authors"`

		CacheTTLSeconds       int     `json:"cache_ttl"`
		PollIntervalSeconds   int     `json:"poll_interval"`
		MaxConcurrentRequests int     `json:"max_concurrent_requests"`
		RequestsPerSecond     float64 `json:"requests_per_second"`
		EnableNotifications   bool    `json:"enable_notifications"`

		AutomationRulesList []models.AutomationRule `json:"automation_rules"`
		Automation          models.AutomationConfig `json:"automation_config"`

		path string
		mu   sync.Mutex
	}

	// PlatformConfig son las credenciales de una plataforma.
	PlatformConfig struct {
		APIURL      string `json:"api_url,omitempty"`
		AccessToken string `json:"access_token,omitempty"`
	}

	// FollowedAuthor es un autor cuyos PRs abiertos se agregan solos al
	// monitoreo. Repo usa el formato "owner/repo".
	FollowedAuthor struct {
		Platform string `json:"platform"`
		Author   string `json:"author"`
		Repo     string `json:"repo"`
	}
)

const (
	defaultLang              = "en"
	defaultCacheTTL          = 300
	defaultPollInterval      = 60
	defaultMaxConcurrent     = 10
	defaultRequestsPerSecond = 1.5
)

// LoadConfig carga la configuración desde path. Si path es un directorio
// (por ejemplo el home del usuario), usa <path>/.matewatch/config.json y
// crea el archivo con valores por defecto si no existe.
func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".json" {
		configPath = path
	} else {
		configDir := filepath.Join(path, ".matewatch")
		configPath = filepath.Join(configDir, "config.json")

		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return nil, fmt.Errorf("error al crear el directorio de configuración: %w", err)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error al leer el archivo de configuración: %w", err)
	}

	config := defaultConfig(configPath)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error al decodificar el archivo JSON: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("la configuración cargada no es válida: %w", err)
	}

	return config, nil
}

func defaultConfig(path string) *Config {
	return &Config{
		Language:              defaultLang,
		Platforms:             map[string]PlatformConfig{},
		PullRequests:          []models.PRRef{},
		FollowedAuthors:       []FollowedAuthor{},
		CacheTTLSeconds:       defaultCacheTTL,
		PollIntervalSeconds:   defaultPollInterval,
		MaxConcurrentRequests: defaultMaxConcurrent,
		RequestsPerSecond:     defaultRequestsPerSecond,
		AutomationRulesList:   []models.AutomationRule{},
		Automation:            models.DefaultAutomationConfig(),
		path:                  path,
	}
}

func createDefaultConfig(path string) (*Config, error) {
	config := defaultConfig(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error al crear el directorio de configuración: %w", err)
	}

	if err := config.Save(); err != nil {
		return nil, err
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.CacheTTLSeconds < 0 {
		return domainerrors.NewConfigError("cache_ttl", "no puede ser negativo", nil)
	}
	if config.PollIntervalSeconds <= 0 {
		return domainerrors.NewConfigError("poll_interval", "debe ser mayor que cero", nil)
	}
	if config.MaxConcurrentRequests <= 0 {
		return domainerrors.NewConfigError("max_concurrent_requests", "debe ser mayor que cero", nil)
	}
	if config.RequestsPerSecond < 0 {
		return domainerrors.NewConfigError("requests_per_second", "no puede ser negativo", nil)
	}
	for _, pr := range config.PullRequests {
		if pr.Platform == "" || pr.Owner == "" || pr.Repo == "" || pr.Number <= 0 {
			return domainerrors.NewConfigError("pull_request_lists", fmt.Sprintf("entrada inválida: %s", pr), nil)
		}
	}
	return nil
}

// Save guarda el documento completo en disco.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("error al codificar la configuración: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("error al guardar la configuración: %w", err)
	}

	return nil
}

func (c *Config) save() error {
	return c.Save()
}

// Path retorna la ruta del archivo de configuración.
func (c *Config) Path() string {
	return c.path
}

// CacheTTL retorna el TTL del caché de snapshots.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// PollInterval retorna el intervalo del loop de monitoreo.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Platform retorna las credenciales de una plataforma, si existen.
func (c *Config) Platform(name string) (PlatformConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, ok := c.Platforms[name]
	return cfg, ok
}

// SetPlatform guarda las credenciales de una plataforma.
func (c *Config) SetPlatform(name string, cfg PlatformConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Platforms == nil {
		c.Platforms = map[string]PlatformConfig{}
	}
	c.Platforms[name] = cfg
	return c.save()
}

// PRs retorna una copia de la lista de PRs monitoreados.
func (c *Config) PRs() []models.PRRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.PRRef, len(c.PullRequests))
	copy(out, c.PullRequests)
	return out
}

// AddPR agrega un PR a la lista de monitoreo. Rechaza duplicados.
func (c *Config) AddPR(ref models.PRRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.PullRequests {
		if existing == ref {
			return domainerrors.NewPRAlreadyTrackedError(ref.CacheKey())
		}
	}
	c.PullRequests = append(c.PullRequests, ref)
	return c.save()
}

// RemovePR quita un PR de la lista de monitoreo.
func (c *Config) RemovePR(ref models.PRRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.PullRequests {
		if existing == ref {
			c.PullRequests = append(c.PullRequests[:i], c.PullRequests[i+1:]...)
			return c.save()
		}
	}
	return domainerrors.NewPRNotTrackedError(ref.CacheKey())
}

// IsTracked indica si el PR ya está en la lista de monitoreo.
func (c *Config) IsTracked(ref models.PRRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.PullRequests {
		if existing == ref {
			return true
		}
	}
	return false
}

// Split separa el campo Repo en owner y nombre del repositorio.
func (f FollowedAuthor) Split() (owner, repo string, ok bool) {
	parts := strings.SplitN(f.Repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Followed retorna una copia de la lista de autores seguidos.
func (c *Config) Followed() []FollowedAuthor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FollowedAuthor, len(c.FollowedAuthors))
	copy(out, c.FollowedAuthors)
	return out
}

// AddFollowedAuthor agrega un autor a la lista de seguidos.
func (c *Config) AddFollowedAuthor(author FollowedAuthor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !strings.Contains(author.Repo, "/") {
		return domainerrors.NewConfigError("followed_authors", "repo debe tener formato owner/repo", nil)
	}
	for _, existing := range c.FollowedAuthors {
		if existing == author {
			return domainerrors.NewConfigError("followed_authors", fmt.Sprintf("el autor %s ya está en la lista", author.Author), nil)
		}
	}
	c.FollowedAuthors = append(c.FollowedAuthors, author)
	return c.save()
}

// RemoveFollowedAuthor quita un autor de la lista de seguidos.
func (c *Config) RemoveFollowedAuthor(author FollowedAuthor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.FollowedAuthors {
		if existing == author {
			c.FollowedAuthors = append(c.FollowedAuthors[:i], c.FollowedAuthors[i+1:]...)
			return c.save()
		}
	}
	return domainerrors.NewConfigError("followed_authors", fmt.Sprintf("el autor %s no está en la lista", author.Author), nil)
}

// AutomationRules retorna una copia de las reglas persistidas.
func (c *Config) AutomationRules() []models.AutomationRule {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.AutomationRule, len(c.AutomationRulesList))
	copy(out, c.AutomationRulesList)
	return out
}

// SetAutomationRules reemplaza y persiste la lista completa de reglas.
func (c *Config) SetAutomationRules(rules []models.AutomationRule) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AutomationRulesList = make([]models.AutomationRule, len(rules))
	copy(c.AutomationRulesList, rules)
	return c.save()
}

// AutomationConfig retorna la configuración del motor de reglas.
func (c *Config) AutomationConfig() models.AutomationConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Automation
}
