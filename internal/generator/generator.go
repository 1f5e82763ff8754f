// Package generator writes posts with a text-generation backend and falls
// back to a fixed template whenever the backend is missing or fails.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevinmichaelchen/repo-post/internal/llm"
	"github.com/kevinmichaelchen/repo-post/internal/models"
	"github.com/kevinmichaelchen/repo-post/internal/prompt"
	"go.uber.org/zap"
)

// Generator writes one post per call and never fails.
type Generator struct {
	backend llm.Backend
	logger  *zap.Logger
}

// New returns a Generator. A nil backend is allowed and means every post is
// the fallback post.
func New(backend llm.Backend, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{backend: backend, logger: logger}
}

// Enabled reports whether a backend is configured.
func (g *Generator) Enabled() bool {
	return g.backend != nil
}

// Write builds the prompt for req and generates a post from it.
func (g *Generator) Write(ctx context.Context, req models.GenerationRequest) models.Post {
	p := prompt.Build(req.Repository, req.Platform, req.ToneOrDefault())
	return g.Generate(ctx, &req.Repository.Repository, p)
}

// Generate sends p to the backend once. It never fails: without a backend,
// on error or on an empty reply the post is Fallback(repo).
func (g *Generator) Generate(ctx context.Context, repo *models.Repository, p string) models.Post {
	log := g.logger.With(zap.String("repo", repo.Name))

	if g.backend == nil {
		log.Warn("generation backend not configured, using fallback content")
		return g.fallback(log, repo)
	}

	content, err := g.backend.Complete(ctx, prompt.SystemInstruction, p)
	if err != nil {
		log.Error("generation failed, using fallback content", zap.Error(err))
		return g.fallback(log, repo)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		log.Warn("generation returned empty content, using fallback content")
		return g.fallback(log, repo)
	}

	post := models.NewPost(content, models.SourceAI)
	log.Info("post generated", zap.String("post_id", post.ID), zap.String("source", string(post.Source)))
	return post
}

func (g *Generator) fallback(log *zap.Logger, repo *models.Repository) models.Post {
	post := models.NewPost(Fallback(repo), models.SourceFallback)
	log.Info("post generated", zap.String("post_id", post.ID), zap.String("source", string(post.Source)))
	return post
}

// Fallback is the post used when generation is unavailable. It is built from
// fetched fields only.
func Fallback(repo *models.Repository) string {
	description := ""
	if repo.Description != nil {
		description = *repo.Description
	}
	language := "code"
	if repo.Language != nil && *repo.Language != "" {
		language = *repo.Language
	}
	return fmt.Sprintf("Check out my %s project on GitHub!\n\n%s\n\nBuilt with %s.\n\n#GitHub #Development",
		repo.Name, description, language)
}
