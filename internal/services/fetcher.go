package services

import (
	"context"

	"github.com/Tomas-vilte/MateWatch/internal/domain/models"
	"github.com/Tomas-vilte/MateWatch/internal/domain/ports"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/cache"
	"github.com/Tomas-vilte/MateWatch/internal/infrastructure/ratelimit"
	"github.com/Tomas-vilte/MateWatch/internal/logger"
	"golang.org/x/sync/errgroup"
)

// clientRegistry defines the methods needed by Fetcher from the platform registry.
type clientRegistry interface {
	Get(name string) (ports.PlatformClient, error)
}

// FetchResult pairs a requested reference with its outcome. One failed
// fetch never discards the rest of the batch.
type FetchResult struct {
	Ref models.PRRef
	PR  *models.PullRequest
	Err error
}

// Fetcher resolves pull request snapshots through the platform clients,
// serving from cache when possible and pacing every network call through
// the shared rate gate.
type Fetcher struct {
	registry clientRegistry
	cache    *cache.Cache
	gate     *ratelimit.Gate
}

type FetcherOption func(*Fetcher)

func WithRegistry(r clientRegistry) FetcherOption {
	return func(f *Fetcher) {
		f.registry = r
	}
}

func WithCache(c *cache.Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
	}
}

func WithGate(g *ratelimit.Gate) FetcherOption {
	return func(f *Fetcher) {
		f.gate = g
	}
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPR returns the snapshot for a single PR. With force set the cache
// read is skipped so the platform is always consulted; the cached entry
// survives until a fresh snapshot overwrites it, so a failed refresh does
// not lose the last known state.
func (f *Fetcher) FetchPR(ctx context.Context, ref models.PRRef, force bool) (*models.PullRequest, error) {
	log := logger.FromContext(ctx)
	key := ref.CacheKey()

	if !force {
		if pr, ok := f.cache.Get(key); ok {
			log.Debug("cache hit", "key", key)
			return pr, nil
		}
	}

	client, err := f.registry.Get(ref.Platform)
	if err != nil {
		return nil, err
	}

	if err := f.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer f.gate.Release()

	if err := f.gate.Wait(ctx); err != nil {
		return nil, err
	}

	pr, err := client.GetPRDetails(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		log.Error("failed to fetch PR",
			"error", err,
			"key", key)
		return nil, err
	}

	f.cache.Set(key, pr)
	return pr, nil
}

// FetchPRs fetches a batch concurrently. Results come back in the same
// order as refs; each slot carries either a snapshot or that PR's error.
func (f *Fetcher) FetchPRs(ctx context.Context, refs []models.PRRef, force bool) []FetchResult {
	results := make([]FetchResult, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		results[i].Ref = ref
		g.Go(func() error {
			pr, err := f.FetchPR(gctx, ref, force)
			results[i].PR = pr
			results[i].Err = err
			// Errors stay in the slot so one bad PR does not cancel the batch.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// FetchLabels returns the current labels of a PR straight from the
// platform. Labels move faster than the snapshot TTL, so this never
// reads the cache.
func (f *Fetcher) FetchLabels(ctx context.Context, ref models.PRRef) ([]models.Label, error) {
	client, err := f.registry.Get(ref.Platform)
	if err != nil {
		return nil, err
	}

	if err := f.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer f.gate.Release()

	if err := f.gate.Wait(ctx); err != nil {
		return nil, err
	}

	return client.GetPRLabels(ctx, ref.Owner, ref.Repo, ref.Number)
}

// AuthorPRs lists a repository's PRs authored by a given user and caches
// the returned snapshots.
func (f *Fetcher) AuthorPRs(ctx context.Context, platform, owner, repo, author, state string) ([]*models.PullRequest, error) {
	client, err := f.registry.Get(platform)
	if err != nil {
		return nil, err
	}

	if err := f.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer f.gate.Release()

	if err := f.gate.Wait(ctx); err != nil {
		return nil, err
	}

	prs, err := client.GetAuthorPRs(ctx, owner, repo, author, state, 1, 100)
	if err != nil {
		return nil, err
	}

	for _, pr := range prs {
		f.cache.Set(pr.CacheKey(), pr)
	}
	return prs, nil
}

// AddComment posts a comment on a PR through its platform client.
func (f *Fetcher) AddComment(ctx context.Context, ref models.PRRef, body string) error {
	client, err := f.registry.Get(ref.Platform)
	if err != nil {
		return err
	}

	if err := f.gate.Acquire(ctx); err != nil {
		return err
	}
	defer f.gate.Release()

	if err := f.gate.Wait(ctx); err != nil {
		return err
	}

	return client.AddComment(ctx, ref.Owner, ref.Repo, ref.Number, body)
}

// AddLabels attaches labels to a PR and drops its cached snapshot so the
// next read sees the new labels.
func (f *Fetcher) AddLabels(ctx context.Context, ref models.PRRef, labels []string) error {
	client, err := f.registry.Get(ref.Platform)
	if err != nil {
		return err
	}

	if err := f.gate.Acquire(ctx); err != nil {
		return err
	}
	defer f.gate.Release()

	if err := f.gate.Wait(ctx); err != nil {
		return err
	}

	if _, err := client.AddLabels(ctx, ref.Owner, ref.Repo, ref.Number, labels); err != nil {
		return err
	}
	f.cache.Invalidate(ref.CacheKey())
	return nil
}

// RemoveLabel removes a label from a PR and invalidates its snapshot.
func (f *Fetcher) RemoveLabel(ctx context.Context, ref models.PRRef, label string) error {
	client, err := f.registry.Get(ref.Platform)
	if err != nil {
		return err
	}

	if err := f.gate.Acquire(ctx); err != nil {
		return err
	}
	defer f.gate.Release()

	if err := f.gate.Wait(ctx); err != nil {
		return err
	}

	if err := client.RemoveLabel(ctx, ref.Owner, ref.Repo, ref.Number, label); err != nil {
		return err
	}
	f.cache.Invalidate(ref.CacheKey())
	return nil
}

// ClosePR closes a PR and invalidates its snapshot.
func (f *Fetcher) ClosePR(ctx context.Context, ref models.PRRef) error {
	client, err := f.registry.Get(ref.Platform)
	if err != nil {
		return err
	}

	if err := f.gate.Acquire(ctx); err != nil {
		return err
	}
	defer f.gate.Release()

	if err := f.gate.Wait(ctx); err != nil {
		return err
	}

	if err := client.ClosePR(ctx, ref.Owner, ref.Repo, ref.Number); err != nil {
		return err
	}
	f.cache.Invalidate(ref.CacheKey())
	return nil
}
