package provider

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spigell/career-pilot/internal/utils"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "spigell/career-pilot"
	defaultTimeout  = 30 * time.Second
	errorBodyLimit  = 300
)

// StatusError is returned when a provider answers with a non-success HTTP status.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status: %s", e.Status)
	}
	return fmt.Sprintf("bad status: %s: %s", e.Status, e.Body)
}

// Client performs JSON requests against data providers.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

func New(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		logger:     logger,
	}
}

// GetJSON makes a GET request and decodes the JSON body into target.
// Query values are logged with secret parameters redacted.
func (c *Client) GetJSON(ctx context.Context, rawURL string, q url.Values, headers http.Header, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req, headers)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   utils.TruncateForLog(string(data), errorBodyLimit),
		}
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) request(req *http.Request, q url.Values) (*http.Response, error) {
	c.logger.Debug("make request",
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.String("query", redact(q).Encode()),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, headers http.Header) {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

var secretParams = []string{"api_key", "key", "token"}

func redact(q url.Values) url.Values {
	if q == nil {
		return url.Values{}
	}

	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = v
	}
	for _, k := range secretParams {
		if out.Has(k) {
			out.Set(k, "***")
		}
	}
	return out
}

// DecodeItems converts loosely typed items into result using json tag names.
func DecodeItems(items any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(items)
}
