package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/kevinmichaelchen/repo-post/internal/auth"
	"github.com/kevinmichaelchen/repo-post/internal/config"
	"github.com/kevinmichaelchen/repo-post/internal/generator"
	"github.com/kevinmichaelchen/repo-post/internal/github"
	"github.com/kevinmichaelchen/repo-post/internal/llm"
	"github.com/kevinmichaelchen/repo-post/internal/logging"
	"github.com/kevinmichaelchen/repo-post/internal/models"
	"github.com/kevinmichaelchen/repo-post/internal/pipeline"
	"github.com/kevinmichaelchen/repo-post/internal/prompt"
	"github.com/kevinmichaelchen/repo-post/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "repo-post",
		Short:         "Turn a GitHub repository into a LinkedIn post or tweet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	root.AddCommand(serveCmd(), reposCmd(), showCmd(), promptCmd(), generateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			gh, err := github.NewClient(nil, cfg.GitHubAPIURL)
			if err != nil {
				return err
			}
			gen, err := newGenerator(cmd.Context())
			if err != nil {
				return err
			}
			srv, err := server.New(gh, gen, logger)
			if err != nil {
				return err
			}

			listen := cfg.ListenAddr
			if addr != "" {
				listen = addr
			}
			httpSrv := &http.Server{
				Addr:              listen,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			logger.Info("starting web server",
				zap.String("addr", listen),
				zap.Bool("generation_enabled", gen.Enabled()))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides LISTEN_ADDR)")
	return cmd
}

func reposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List repositories visible to GITHUB_TOKEN, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			gh, token, err := cliClient()
			if err != nil {
				return err
			}
			repos, err := gh.ListRepositories(cmd.Context(), token)
			if err != nil {
				return err
			}
			for _, r := range repos {
				lang := "-"
				if r.Language != nil {
					lang = *r.Language
				}
				fmt.Printf("%-12d %-50s ★ %-6d %s\n", r.ID, r.FullName, r.Stars, lang)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [repo-id]",
		Short: "Print a repository with its README and package.json as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := enrich(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(repo)
		},
	}
}

type postFlags struct {
	platform string
	tone     string
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.platform, "platform", "p", string(models.PlatformLinkedIn), "Target platform (linkedin or twitter)")
	cmd.Flags().StringVarP(&f.tone, "tone", "t", models.DefaultTone, "Tone of the post")
}

func (f *postFlags) request(ctx context.Context, id string) (models.GenerationRequest, error) {
	platform, err := models.ParsePlatform(f.platform)
	if err != nil {
		return models.GenerationRequest{}, err
	}
	repo, err := enrich(ctx, id)
	if err != nil {
		return models.GenerationRequest{}, err
	}
	return models.GenerationRequest{Repository: repo, Platform: platform, Tone: f.tone}, nil
}

func promptCmd() *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:   "prompt [repo-id]",
		Short: "Print the generation prompt without calling the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(prompt.Build(req.Repository, req.Platform, req.ToneOrDefault()))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func generateCmd() *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:   "generate [repo-id]",
		Short: "Fetch a repository and write a post about it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			gen, err := newGenerator(cmd.Context())
			if err != nil {
				return err
			}
			post := gen.Write(cmd.Context(), req)
			fmt.Println(post.Content)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newGenerator(ctx context.Context) (*generator.Generator, error) {
	backend, err := llm.NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return generator.New(backend, logger), nil
}

func cliClient() (*github.Client, auth.Token, error) {
	token, err := auth.RequireToken(&auth.Session{AccessToken: cfg.GitHubToken})
	if err != nil {
		return nil, "", fmt.Errorf("GITHUB_TOKEN: %w", err)
	}
	gh, err := github.NewClient(nil, cfg.GitHubAPIURL)
	if err != nil {
		return nil, "", err
	}
	return gh, token, nil
}

func enrich(ctx context.Context, rawID string) (*models.EnrichedRepository, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("repository id must be numeric: %q", rawID)
	}
	gh, token, err := cliClient()
	if err != nil {
		return nil, err
	}
	return pipeline.Enrich(ctx, gh, logger, token, id)
}
