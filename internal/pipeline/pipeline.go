// Package pipeline joins repository metadata with its optional README and
// package manifest.
package pipeline

import (
	"context"

	"github.com/kevinmichaelchen/repo-post/internal/auth"
	"github.com/kevinmichaelchen/repo-post/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher reads from the repository host. *github.Client implements it.
type Fetcher interface {
	GetRepository(ctx context.Context, token auth.Token, id int64) (*models.Repository, error)
	GetReadme(ctx context.Context, token auth.Token, fullName string) (string, error)
	GetManifest(ctx context.Context, token auth.Token, fullName string) (*models.Manifest, error)
}

// Enrich fetches repository id and, concurrently, its README and manifest.
// Only the metadata fetch can fail the call; the optional artifacts are nil
// when their fetch, decode or parse fails.
func Enrich(ctx context.Context, f Fetcher, logger *zap.Logger, token auth.Token, id int64) (*models.EnrichedRepository, error) {
	repo, err := f.GetRepository(ctx, token, id)
	if err != nil {
		return nil, err
	}

	log := logger.With(zap.String("repo", repo.FullName))
	var (
		readme   *string
		manifest *models.Manifest
	)

	// Both goroutines swallow their errors, so Wait only ever joins.
	var g errgroup.Group
	g.Go(func() error {
		text, err := f.GetReadme(ctx, token, repo.FullName)
		if err != nil {
			log.Warn("README unavailable", zap.Error(err))
			return nil
		}
		readme = &text
		return nil
	})
	g.Go(func() error {
		m, err := f.GetManifest(ctx, token, repo.FullName)
		if err != nil {
			log.Warn("package.json unavailable", zap.Error(err))
			return nil
		}
		manifest = m
		return nil
	})
	_ = g.Wait()

	return Aggregate(repo, readme, manifest), nil
}

// Aggregate merges fetch results into one record.
func Aggregate(repo *models.Repository, readme *string, manifest *models.Manifest) *models.EnrichedRepository {
	return &models.EnrichedRepository{
		Repository: *repo,
		Readme:     readme,
		Manifest:   manifest,
	}
}
