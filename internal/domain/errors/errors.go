package errors

import "fmt"

// ConfigError representa un error de configuración
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error [%s]: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("config error [%s]: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError crea un nuevo error de configuración
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// PlatformNotConfiguredError indica que no hay cliente para la plataforma pedida
type PlatformNotConfiguredError struct {
	Platform string
}

func (e *PlatformNotConfiguredError) Error() string {
	return fmt.Sprintf("plataforma '%s' sin cliente configurado", e.Platform)
}

// NewPlatformNotConfiguredError crea un nuevo error de plataforma no configurada
func NewPlatformNotConfiguredError(platform string) *PlatformNotConfiguredError {
	return &PlatformNotConfiguredError{Platform: platform}
}

// PlatformAlreadyRegisteredError indica un registro duplicado de plataforma
type PlatformAlreadyRegisteredError struct {
	Platform string
}

func (e *PlatformAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("plataforma '%s' ya esta registrada", e.Platform)
}

// NewPlatformAlreadyRegisteredError crea un nuevo error de registro duplicado
func NewPlatformAlreadyRegisteredError(platform string) *PlatformAlreadyRegisteredError {
	return &PlatformAlreadyRegisteredError{Platform: platform}
}

// RuleNotFoundError indica que una regla no existe en el motor
type RuleNotFoundError struct {
	ID string
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("regla '%s' no encontrada", e.ID)
}

// NewRuleNotFoundError crea un nuevo error de regla no encontrada
func NewRuleNotFoundError(id string) *RuleNotFoundError {
	return &RuleNotFoundError{ID: id}
}

// DuplicateRuleError indica que ya existe una regla con ese ID
type DuplicateRuleError struct {
	ID string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("regla '%s' ya existe", e.ID)
}

// NewDuplicateRuleError crea un nuevo error de regla duplicada
func NewDuplicateRuleError(id string) *DuplicateRuleError {
	return &DuplicateRuleError{ID: id}
}

// PRAlreadyTrackedError indica que el PR ya está en la lista de monitoreo
type PRAlreadyTrackedError struct {
	Key string
}

func (e *PRAlreadyTrackedError) Error() string {
	return fmt.Sprintf("PR %s ya esta en la lista de monitoreo", e.Key)
}

// NewPRAlreadyTrackedError crea un nuevo error de PR duplicado
func NewPRAlreadyTrackedError(key string) *PRAlreadyTrackedError {
	return &PRAlreadyTrackedError{Key: key}
}

// PRNotTrackedError indica que el PR no está en la lista de monitoreo
type PRNotTrackedError struct {
	Key string
}

func (e *PRNotTrackedError) Error() string {
	return fmt.Sprintf("PR %s no esta en la lista de monitoreo", e.Key)
}

// NewPRNotTrackedError crea un nuevo error de PR no monitoreado
func NewPRNotTrackedError(key string) *PRNotTrackedError {
	return &PRNotTrackedError{Key: key}
}
