package ratelimit

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate combina dos límites independientes sobre las llamadas upstream:
// un espaciado mínimo entre llamadas (rate.Limiter con burst 1, así dos
// Wait nunca se otorgan más juntos que 1/requestsPerSecond) y un tope de
// llamadas en vuelo (semáforo con maxInFlight permisos).
type Gate struct {
	limiter *rate.Limiter
	sem     *semaphore.Weighted
}

const defaultMaxInFlight = 10

func NewGate(requestsPerSecond float64, maxInFlight int64) *Gate {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &Gate{
		limiter: rate.NewLimiter(limit, 1),
		sem:     semaphore.NewWeighted(maxInFlight),
	}
}

// Wait bloquea hasta que haya pasado el intervalo mínimo desde la última
// llamada otorgada. No garantiza orden FIFO entre los que esperan.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Acquire toma un permiso de concurrencia; bloquea si ya hay maxInFlight
// llamadas en vuelo. Cada Acquire exitoso debe liberarse exactamente una
// vez con Release, falle o no la operación protegida.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release devuelve un permiso de concurrencia.
func (g *Gate) Release() {
	g.sem.Release(1)
}
