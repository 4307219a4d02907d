package cache

import (
	"sync"
	"time"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
)

type entry struct {
	pr      *models.PullRequest
	expires time.Time
}

// Cache es un caché en memoria de snapshots de PR con TTL fijo por
// instancia. Vive lo que vive el proceso; no persiste nada.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get obtiene un snapshot del caché. Una entrada vencida se elimina y
// cuenta como miss: el caché nunca devuelve datos pasados su expiración.
func (c *Cache) Get(key string) (*models.PullRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !time.Now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.pr, true
}

// Set guarda un snapshot con el TTL configurado.
func (c *Cache) Set(key string, pr *models.PullRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		pr:      pr,
		expires: time.Now().Add(c.ttl),
	}
}

// Invalidate elimina la entrada de la clave indicada, si existe.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// CleanExpired elimina todas las entradas vencidas y retorna cuántas
// se eliminaron.
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len retorna la cantidad de entradas, vencidas incluidas.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
