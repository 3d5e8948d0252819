package jobsalary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spigell/career-pilot/internal/logger"
	"github.com/spigell/career-pilot/internal/provider"
	"github.com/spigell/career-pilot/internal/secrets"

	"go.uber.org/zap"
)

const (
	DefaultURL       = "https://job-salary-data.p.rapidapi.com/company-job-salary"
	DefaultHost      = "job-salary-data.p.rapidapi.com"
	DefaultAPIKeyEnv = "RAPIDAPI_KEY"

	statusOK = "OK"
)

type Config struct {
	URL       string        `mapstructure:"url"`
	Host      string        `mapstructure:"host"`
	Timeout   time.Duration `mapstructure:"timeout"`
	APIKeyEnv string        `mapstructure:"api-key-env"`
}

// Query selects salaries for a title at a company in a city.
type Query struct {
	Company           string
	JobTitle          string
	Location          string
	YearsOfExperience string
}

// Salary is one entry of the provider data list. Figures are yearly.
type Salary struct {
	Location            string  `json:"location"`
	Company             string  `json:"company"`
	JobTitle            string  `json:"job_title"`
	Currency            string  `json:"salary_currency"`
	MedianSalary        float64 `json:"median_salary"`
	MinSalary           float64 `json:"min_salary"`
	MaxSalary           float64 `json:"max_salary"`
	MedianBaseSalary    float64 `json:"median_base_salary"`
	MedianAdditionalPay float64 `json:"median_additional_pay"`
	Confidence          string  `json:"confidence"`
	SalaryCount         int     `json:"salary_count"`
}

// StatusError is returned when the provider answers with a status other than "OK".
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("provider status %q: %s", e.Status, msg)
}

type Client struct {
	http   *provider.Client
	url    string
	host   string
	keyEnv string
	logger *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAPIKeyEnv
	}

	log = logger.WithProvider(log, "jobsalary", "")

	return &Client{
		http:   provider.New(cfg.Timeout, log),
		url:    cfg.URL,
		host:   cfg.Host,
		keyEnv: cfg.APIKeyEnv,
		logger: log,
	}
}

// Lookup returns the salary entries for q. A response with a status other than
// "OK" yields *StatusError; an OK response may carry an empty list.
func (c *Client) Lookup(ctx context.Context, q Query) ([]Salary, error) {
	key, err := secrets.Load(secrets.Source{Name: "RapidAPI key", Env: c.keyEnv})
	if err != nil {
		return nil, err
	}

	headers := http.Header{
		"x-rapidapi-key":  {key},
		"x-rapidapi-host": {c.host},
	}
	params := url.Values{
		"company":             {q.Company},
		"job_title":           {q.JobTitle},
		"location_type":       {"CITY"},
		"location":            {q.Location},
		"years_of_experience": {q.YearsOfExperience},
	}

	var resp struct {
		Status string          `json:"status"`
		Error  json.RawMessage `json:"error"`
		Data   []any           `json:"data"`
	}
	if err := c.http.GetJSON(ctx, c.url, params, headers, &resp); err != nil {
		return nil, fmt.Errorf("fetch salaries: %w", err)
	}

	if resp.Status != statusOK {
		return nil, &StatusError{Status: resp.Status, Message: errorMessage(resp.Error)}
	}

	var salaries []Salary
	if err := provider.DecodeItems(resp.Data, &salaries); err != nil {
		return nil, fmt.Errorf("decode salaries: %w", err)
	}

	c.logger.Debug("salaries fetched",
		zap.String("company", q.Company),
		zap.String("job_title", q.JobTitle),
		zap.Int("count", len(salaries)),
	)

	return salaries, nil
}

// errorMessage reads the provider error, sent either as {"message": "..."} or as a bare string.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var object struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &object); err == nil {
		return strings.TrimSpace(object.Message)
	}

	return string(raw)
}
