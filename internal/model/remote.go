package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/features"
)

// BackendHTTP identifies predictors served by a remote model server.
const BackendHTTP = "http"

// ErrBackendUnavailable is returned while the circuit breaker is open.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// RemoteMetadata is the model server's description of a deployed model.
type RemoteMetadata struct {
	Name            string           `json:"name"`
	Version         string           `json:"version"`
	Algorithm       string           `json:"algorithm"`
	FeatureNames    []string         `json:"feature_names"`
	Classes         []string         `json:"classes"`
	LabelVocabulary *LabelVocabulary `json:"label_vocabulary,omitempty"`
}

type predictRequest struct {
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []string `json:"predictions"`
}

// RemotePredictor calls an HTTP model server. Calls are rate limited and
// guarded by a circuit breaker; there are no retries.
type RemotePredictor struct {
	baseURL    string
	modelName  string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	info       domain.ModelInfo
}

// NewRemotePredictor fetches the model metadata and checks it against the
// feature contract before returning.
func NewRemotePredictor(ctx context.Context, config domain.RemoteModelConfig, logger *logrus.Logger) (*RemotePredictor, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: remote base URL is required", domain.ErrIncompatibleModel)
	}
	if config.ModelName == "" {
		return nil, fmt.Errorf("%w: remote model name is required", domain.ErrIncompatibleModel)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	r := &RemotePredictor{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		modelName:  config.ModelName,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-" + config.ModelName,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Model backend circuit breaker changed state")
		},
	})

	meta, err := r.fetchMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if !features.MatchesContract(meta.FeatureNames) {
		return nil, fmt.Errorf("%w: remote model %s expects features %v",
			domain.ErrIncompatibleModel, config.ModelName, meta.FeatureNames)
	}

	a := &Artifact{LabelVocabulary: meta.LabelVocabulary}
	vocab, err := a.vocabulary()
	if err != nil {
		return nil, err
	}

	name := meta.Name
	if name == "" {
		name = config.ModelName
	}
	r.info = domain.ModelInfo{
		Name:              name,
		Version:           meta.Version,
		Algorithm:         meta.Algorithm,
		Backend:           BackendHTTP,
		FeatureNames:      meta.FeatureNames,
		Classes:           meta.Classes,
		VocabularyVersion: a.vocabularyVersion(),
		LabelVocabulary:   vocab,
		LoadedAt:          time.Now(),
	}

	logger.WithFields(logrus.Fields{
		"model":   r.info.Name,
		"version": r.info.Version,
		"url":     r.baseURL,
	}).Info("Connected to remote model backend")

	return r, nil
}

func (r *RemotePredictor) modelURL() string {
	return fmt.Sprintf("%s/v1/models/%s", r.baseURL, r.modelName)
}

func (r *RemotePredictor) fetchMetadata(ctx context.Context) (*RemoteMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.modelURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model metadata returned status %d", domain.ErrIncompatibleModel, resp.StatusCode)
	}

	var meta RemoteMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: failed to decode model metadata: %v", domain.ErrIncompatibleModel, err)
	}
	return &meta, nil
}

// Predict sends a single instance to the model server.
func (r *RemotePredictor) Predict(ctx context.Context, vector []float64) (string, error) {
	if len(vector) != features.Size {
		return "", fmt.Errorf("%w: expected %d features, got %d", domain.ErrPrediction, features.Size, len(vector))
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrPrediction, err)
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.doPredict(ctx, vector)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", domain.ErrPrediction, ErrBackendUnavailable)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrPrediction, err)
	}
	return result.(string), nil
}

func (r *RemotePredictor) doPredict(ctx context.Context, vector []float64) (string, error) {
	body, err := json.Marshal(predictRequest{Instances: [][]float64{vector}})
	if err != nil {
		return "", fmt.Errorf("failed to encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.modelURL()+":predict", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode prediction response: %w", err)
	}
	if len(out.Predictions) != 1 {
		return "", fmt.Errorf("expected 1 prediction, got %d", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

func (r *RemotePredictor) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
}

func (r *RemotePredictor) Info() domain.ModelInfo {
	return r.info
}

// BreakerState reports the circuit breaker state for health checks.
func (r *RemotePredictor) BreakerState() gobreaker.State {
	return r.breaker.State()
}
