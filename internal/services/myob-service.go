package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"myobclient/entity"
	"myobclient/internal/config"
	"myobclient/internal/lib/sl"
	"myobclient/internal/metrics"
)

const (
	retryBaseDelay      = 500 * time.Millisecond
	retryMaxDelay       = 10 * time.Second
	retryJitterFraction = 0.2
)

type MyobService struct {
	baseUrl    string
	apiVersion string
	maxRetries int
	auth       Authenticator
	httpClient *http.Client
	log        *slog.Logger
}

func NewMyobService(conf *config.Config, log *slog.Logger) (*MyobService, error) {
	if conf.Myob.BaseUrl == "" {
		return nil, fmt.Errorf("myob base_url is required")
	}
	if strings.Contains(conf.Myob.BaseUrl, "{companyFileGuid}") {
		return nil, fmt.Errorf("myob base_url still contains the {companyFileGuid} placeholder")
	}

	timeout := time.Duration(conf.Myob.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	auth, err := NewAuthenticator(conf, httpClient)
	if err != nil {
		return nil, fmt.Errorf("myob credentials: %w", err)
	}

	Configure(conf.Myob.RateLimit, conf.Myob.Burst)

	return NewMyobServiceWithAuth(conf.Myob.BaseUrl, conf.Myob.ApiVersion, auth, httpClient, conf.Myob.MaxRetries, log), nil
}

func NewMyobServiceWithAuth(baseUrl, apiVersion string, auth Authenticator, httpClient *http.Client, maxRetries int, log *slog.Logger) *MyobService {
	if apiVersion == "" {
		apiVersion = "v2"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &MyobService{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		apiVersion: apiVersion,
		maxRetries: maxRetries,
		auth:       auth,
		httpClient: httpClient,
		log:        log.With(sl.Module("myob"), slog.String("auth", auth.Name())),
	}
}

// APIError is a non-2xx response from MYOB.
type APIError struct {
	Status     int
	Body       string
	Errors     []entity.MyobError
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, item := range e.Errors {
			msgs = append(msgs, item.String())
		}
		return fmt.Sprintf("myob error (status %d): %s", e.Status, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("myob error (status %d): %s", e.Status, e.Body)
}

func (e *APIError) retriable() bool {
	return e.Status == http.StatusTooManyRequests || (e.Status >= 500 && e.Status <= 599)
}

// IsNotFound reports whether err is a MYOB 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// parseRetryAfter supports seconds or HTTP-date
func parseRetryAfter(h string) (time.Duration, error) {
	if h == "" {
		return 0, fmt.Errorf("empty")
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	if t, err := http.ParseTime(h); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0, nil
		}
		return d, nil
	}
	return 0, fmt.Errorf("unparsable")
}

func backoffDuration(attempt int) time.Duration {
	d := float64(retryBaseDelay) * math.Pow(2, float64(attempt))
	if d > float64(retryMaxDelay) {
		d = float64(retryMaxDelay)
	}
	j := 1 - retryJitterFraction + rand.Float64()*(2*retryJitterFraction)
	return time.Duration(d * j)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *MyobService) buildURL(resource string, query url.Values) string {
	u := s.baseUrl + "/" + strings.TrimLeft(resource, "/")
	if len(query) > 0 {
		// MYOB's OData parser does not accept '+' for spaces
		u += "?" + strings.ReplaceAll(query.Encode(), "+", "%20")
	}
	return u
}

// Request sends one call to MYOB. POST and PUT return the full response so callers can
// read Location; a POST answered with an empty body yields a synthetic 201.
func (s *MyobService) Request(ctx context.Context, method, resource string, body interface{}, query url.Values) (*entity.MyobResponse, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
	}

	fullURL := s.buildURL(resource, query)
	log := s.log.With(
		slog.String("method", method),
		slog.String("url", fullURL),
	)

	var lastErr error
	refreshed := false

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := Acquire(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := s.do(ctx, method, fullURL, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			log.With(sl.Err(err), slog.Int("attempt", attempt)).Debug("myob request failed")
			if attempt == s.maxRetries {
				break
			}
			if err = sleep(ctx, backoffDuration(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if len(bytes.TrimSpace(resp.Body)) == 0 && method == http.MethodPost {
				resp.StatusCode = http.StatusCreated
				resp.StatusMessage = "Created"
				resp.Synthetic = true
			}
			return resp, nil
		}

		apiErr := newAPIError(resp)

		if resp.StatusCode == http.StatusUnauthorized && !refreshed {
			// access token expired early; fetch a new one once
			refreshed = true
			s.auth.Invalidate()
			lastErr = apiErr
			attempt--
			continue
		}

		if !apiErr.retriable() {
			log.With(
				slog.Int("status", apiErr.Status),
				slog.String("response", apiErr.Body),
			).Debug("myob request rejected")
			return nil, apiErr
		}

		lastErr = apiErr
		if attempt == s.maxRetries {
			break
		}

		wait := backoffDuration(attempt)
		if apiErr.RetryAfter > 0 {
			wait = apiErr.RetryAfter
			if wait > retryMaxDelay {
				wait = retryMaxDelay
			}
		}
		if err = sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed after retries")
}

func (s *MyobService) do(ctx context.Context, method, fullURL string, payload []byte) (*entity.MyobResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	authHeaders, err := s.auth.Headers(ctx)
	if err != nil {
		return nil, err
	}
	for key, values := range authHeaders {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set(headerVersion, s.apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	t := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.ObserveMyob(method, 0, time.Since(t))
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if closeErr := Body.Close(); closeErr != nil {
			s.log.With(sl.Err(closeErr)).Warn("failed to close response body")
		}
	}(resp.Body)

	bodyBytes, err := io.ReadAll(resp.Body)
	metrics.ObserveMyob(method, resp.StatusCode, time.Since(t))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return &entity.MyobResponse{
		StatusCode:    resp.StatusCode,
		StatusMessage: http.StatusText(resp.StatusCode),
		Headers:       headers,
		Body:          bodyBytes,
	}, nil
}

func newAPIError(resp *entity.MyobResponse) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Body: string(resp.Body)}

	var errResp entity.MyobErrorResponse
	if err := json.Unmarshal(resp.Body, &errResp); err == nil {
		apiErr.Errors = errResp.Errors
	}

	if ra := resp.Headers["Retry-After"]; ra != "" {
		if d, err := parseRetryAfter(ra); err == nil {
			apiErr.RetryAfter = d
		}
	}
	if apiErr.RetryAfter == 0 && resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = 2 * time.Second
	}
	return apiErr
}

// Get decodes a GET response body into target.
func (s *MyobService) Get(ctx context.Context, resource string, query url.Values, target interface{}) error {
	resp, err := s.Request(ctx, http.MethodGet, resource, nil, query)
	if err != nil {
		return err
	}
	if target == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err = json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Post sends body and returns the full response.
func (s *MyobService) Post(ctx context.Context, resource string, body interface{}) (*entity.MyobResponse, error) {
	return s.Request(ctx, http.MethodPost, resource, body, nil)
}
