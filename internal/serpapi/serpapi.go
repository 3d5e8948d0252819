package serpapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spigell/career-pilot/internal/logger"
	"github.com/spigell/career-pilot/internal/provider"
	"github.com/spigell/career-pilot/internal/secrets"

	"go.uber.org/zap"
)

const (
	DefaultURL       = "https://serpapi.com/search"
	DefaultAPIKeyEnv = "SERPAPI_KEY"

	engine = "google_jobs"
)

type Config struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	APIKeyEnv string        `mapstructure:"api-key-env"`
}

// Job is a single listing of the google_jobs engine. Only consumed fields are decoded.
type Job struct {
	Title              string      `json:"title"`
	CompanyName        string      `json:"company_name"`
	Location           string      `json:"location"`
	DetectedExtensions Extensions  `json:"detected_extensions"`
	Highlights         []Highlight `json:"job_highlights"`
}

type Extensions struct {
	PostedAt string `json:"posted_at"`
}

// Highlight is a titled section of a listing, e.g. "Qualifications".
type Highlight struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Query is a keyword search restricted to a location.
type Query struct {
	Keywords string
	Location string
}

func (q Query) String() string {
	return fmt.Sprintf("%s jobs in %s", q.Keywords, q.Location)
}

type Client struct {
	http   *provider.Client
	url    string
	keyEnv string
	logger *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAPIKeyEnv
	}

	log = logger.WithProvider(log, "serpapi", "")

	return &Client{
		http:   provider.New(cfg.Timeout, log),
		url:    cfg.URL,
		keyEnv: cfg.APIKeyEnv,
		logger: log,
	}
}

// Search returns listings in provider order. A missing credential is reported
// as an error wrapping secrets.ErrNotConfigured before any request is made.
func (c *Client) Search(ctx context.Context, q Query) ([]Job, error) {
	key, err := secrets.Load(secrets.Source{Name: "SerpAPI key", Env: c.keyEnv})
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"engine":  {engine},
		"q":       {strings.TrimSpace(q.String())},
		"hl":      {"en"},
		"api_key": {key},
	}

	var resp struct {
		Error       string `json:"error"`
		JobsResults []any  `json:"jobs_results"`
	}
	if err := c.http.GetJSON(ctx, c.url, params, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}

	var jobs []Job
	if err := provider.DecodeItems(resp.JobsResults, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	c.logger.Debug("jobs fetched",
		zap.String("query", params.Get("q")),
		zap.Int("count", len(jobs)),
		zap.String("provider_error", resp.Error),
	)

	return jobs, nil
}
