package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/features"
)

type fakeModelServer struct {
	featureNames []string
	label        string
	status       int
	predictCalls atomic.Int32
	lastAuth     atomic.Value
}

func (f *fakeModelServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/pe", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(RemoteMetadata{
			Name:         "pe",
			Version:      "3",
			Algorithm:    "gradient_boosting",
			FeatureNames: f.featureNames,
			Classes:      []string{"normal", "mild", "severe"},
		})
	})
	mux.HandleFunc("/v1/models/pe:predict", func(w http.ResponseWriter, r *http.Request) {
		f.predictCalls.Add(1)
		if f.status != 0 {
			http.Error(w, "boom", f.status)
			return
		}
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Instances) != 1 || len(req.Instances[0]) != features.Size {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: []string{f.label}})
	})
	return mux
}

func newRemote(t *testing.T, f *fakeModelServer) (*RemotePredictor, error) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	return NewRemotePredictor(context.Background(), domain.RemoteModelConfig{
		BaseURL:   srv.URL + "/",
		ModelName: "pe",
		APIKey:    "secret",
		Timeout:   2 * time.Second,
	}, logger)
}

func TestRemotePredictor_Predict(t *testing.T) {
	f := &fakeModelServer{featureNames: features.Names(), label: "Severe"}
	r, err := newRemote(t, f)
	require.NoError(t, err)

	label, err := r.Predict(context.Background(), observation(170, 115, domain.ProteinPlus3))
	require.NoError(t, err)
	assert.Equal(t, "Severe", label)
	assert.Equal(t, "Bearer secret", f.lastAuth.Load())

	info := r.Info()
	assert.Equal(t, BackendHTTP, info.Backend)
	assert.Equal(t, "3", info.Version)
	assert.Equal(t, DefaultVocabularyVersion, info.VocabularyVersion)
}

func TestRemotePredictor_IncompatibleFeatures(t *testing.T) {
	names := features.Names()
	names[2], names[3] = names[3], names[2]

	_, err := newRemote(t, &fakeModelServer{featureNames: names})
	assert.ErrorIs(t, err, domain.ErrIncompatibleModel)
}

func TestRemotePredictor_MissingConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewRemotePredictor(context.Background(), domain.RemoteModelConfig{}, logger)
	assert.ErrorIs(t, err, domain.ErrIncompatibleModel)
}

func TestRemotePredictor_ServerErrorPropagates(t *testing.T) {
	f := &fakeModelServer{featureNames: features.Names(), status: http.StatusInternalServerError}
	r, err := newRemote(t, f)
	require.NoError(t, err)

	_, err = r.Predict(context.Background(), observation(110, 75, 0))
	assert.ErrorIs(t, err, domain.ErrPrediction)
	assert.Contains(t, err.Error(), "status 500")
}

func TestRemotePredictor_BreakerOpens(t *testing.T) {
	f := &fakeModelServer{featureNames: features.Names(), status: http.StatusServiceUnavailable}
	r, err := newRemote(t, f)
	require.NoError(t, err)

	v := observation(110, 75, 0)
	for i := 0; i < 3; i++ {
		_, err = r.Predict(context.Background(), v)
		require.Error(t, err)
	}

	_, err = r.Predict(context.Background(), v)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, domain.ErrPrediction)
	assert.Equal(t, int32(3), f.predictCalls.Load(), "open breaker must not reach the server")
}

func TestRemotePredictor_WrongVectorLength(t *testing.T) {
	f := &fakeModelServer{featureNames: features.Names(), label: "normal"}
	r, err := newRemote(t, f)
	require.NoError(t, err)

	_, err = r.Predict(context.Background(), []float64{1})
	assert.ErrorIs(t, err, domain.ErrPrediction)
	assert.Equal(t, int32(0), f.predictCalls.Load())
}
