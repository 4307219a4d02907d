package registry

import (
	"sync"

	"github.com/Tomas-vilte/MateWatch/internal/domain/errors"
	"github.com/Tomas-vilte/MateWatch/internal/domain/ports"
)

// Registry gestiona el registro de clientes de plataforma. Los clientes
// se registran una vez al armar el proceso y se consultan por nombre en
// cada llamada; no comparten estado entre sí más allá de la interfaz.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]ports.PlatformClient
}

// NewRegistry crea un nuevo registro de plataformas vacío.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]ports.PlatformClient),
	}
}

// Register registra un cliente bajo su propio nombre de plataforma.
func (r *Registry) Register(client ports.PlatformClient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := client.Name()
	if _, exists := r.clients[name]; exists {
		return errors.NewPlatformAlreadyRegisteredError(name)
	}

	r.clients[name] = client
	return nil
}

// Get obtiene un cliente por nombre de plataforma.
func (r *Registry) Get(name string) (ports.PlatformClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[name]
	if !exists {
		return nil, errors.NewPlatformNotConfiguredError(name)
	}

	return client, nil
}

// List retorna los nombres de las plataformas registradas.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// IsRegistered verifica si una plataforma está registrada.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.clients[name]
	return exists
}
