// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kevinmichaelchen/repo-post/internal/auth"
	"github.com/kevinmichaelchen/repo-post/internal/generator"
	"github.com/kevinmichaelchen/repo-post/internal/logging"
	"github.com/kevinmichaelchen/repo-post/internal/models"
	"github.com/kevinmichaelchen/repo-post/internal/pipeline"
	"go.uber.org/zap"
)

// maxBodyBytes bounds POST /generate bodies. It fits any GET /repo/{id}
// response: READMEs are at most 1 MB and JSON escaping can grow that sixfold.
const maxBodyBytes = 8 << 20

// RepoSource is the repository host as the server uses it.
type RepoSource interface {
	pipeline.Fetcher
	ListRepositories(ctx context.Context, token auth.Token) ([]models.Repository, error)
}

type Server struct {
	repos  RepoSource
	gen    *generator.Generator
	logger *zap.Logger
}

func New(repos RepoSource, gen *generator.Generator, logger *zap.Logger) (*Server, error) {
	if repos == nil {
		return nil, errors.New("repository source required")
	}
	if gen == nil {
		return nil, errors.New("generator required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{repos: repos, gen: gen, logger: logger}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /repo/{id}", s.handleRepo)
	mux.HandleFunc("GET /repos", s.handleRepos)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logging.Middleware(s.logger, mux)
}

// --- Handlers ---

type generateReq struct {
	Repository *repositoryPayload `json:"repository"`
	Platform   string             `json:"platform"`
	Tone       string             `json:"tone"`
}

// repositoryPayload is an enriched repository as posted by a client. The
// manifest stays raw so a malformed one is dropped instead of failing the
// whole request.
type repositoryPayload struct {
	models.Repository
	Readme      *string         `json:"readme"`
	PackageJSON json.RawMessage `json:"packageJson"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireToken(auth.SessionFromRequest(r)); err != nil {
		s.writeError(w, err, "Failed to generate post")
		return
	}

	req, err := s.decodeGenerate(w, r)
	if err != nil {
		s.writeError(w, err, "Failed to generate post")
		return
	}

	// The post is produced even if the caller goes away mid-generation.
	post := s.gen.Write(context.WithoutCancel(r.Context()), req)
	writeJSON(w, http.StatusOK, contentResponse{Content: post.Content})
}

func (s *Server) decodeGenerate(w http.ResponseWriter, r *http.Request) (models.GenerationRequest, error) {
	var body generateReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.GenerationRequest{}, err
		}
		return models.GenerationRequest{}, invalid("Request body must be a JSON object")
	}
	if body.Repository == nil {
		return models.GenerationRequest{}, invalid("Repository data is required")
	}
	platform, err := models.ParsePlatform(body.Platform)
	if err != nil {
		return models.GenerationRequest{}, invalid("Valid platform (linkedin or twitter) is required")
	}

	repo := &models.EnrichedRepository{
		Repository: body.Repository.Repository,
		Readme:     body.Repository.Readme,
	}
	if raw := body.Repository.PackageJSON; len(raw) > 0 && string(raw) != "null" {
		m, err := models.ParseManifest(raw)
		if err != nil {
			s.logger.Warn("ignoring malformed packageJson", zap.String("repo", repo.Name), zap.Error(err))
		} else {
			repo.Manifest = m
		}
	}

	return models.GenerationRequest{Repository: repo, Platform: platform, Tone: body.Tone}, nil
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	token, err := auth.RequireToken(auth.SessionFromRequest(r))
	if err != nil {
		s.writeError(w, err, "Failed to fetch repository")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, invalid("Repository id must be a positive integer"), "Failed to fetch repository")
		return
	}

	repo, err := pipeline.Enrich(r.Context(), s.repos, s.logger, token, id)
	if err != nil {
		s.writeError(w, err, "Failed to fetch repository")
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	token, err := auth.RequireToken(auth.SessionFromRequest(r))
	if err != nil {
		s.writeError(w, err, "Failed to fetch repositories")
		return
	}

	repos, err := s.repos.ListRepositories(r.Context(), token)
	if err != nil {
		s.writeError(w, err, "Failed to fetch repositories")
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

type healthResp struct {
	Status     string `json:"status"`
	Generation string `json:"generation"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := string(models.SourceFallback)
	if s.gen.Enabled() {
		mode = "ai"
	}
	writeJSON(w, http.StatusOK, healthResp{Status: "ok", Generation: mode})
}
