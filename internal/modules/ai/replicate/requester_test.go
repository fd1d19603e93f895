package replicate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/sketch-relay/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.Default().Replicate
	cfg.BaseURL = srv.URL
	cfg.Token = "r8_test"
	cfg.PollInterval = "10ms"
	return NewClient(cfg), srv
}

func TestRunPollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	created := make(chan map[string]any, 1)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8_test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/models/black-forest-labs/flux-kontext-pro/predictions":
			assert.Equal(t, "wait=60", r.Header.Get("Prefer"))
			body, _ := io.ReadAll(r.Body)
			var req map[string]any
			assert.NoError(t, jsoniter.Unmarshal(body, &req))
			created <- req
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"p1","status":"starting","urls":{"get":"http://`+r.Host+`/v1/predictions/p1"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/p1":
			if polls.Add(1) < 2 {
				_, _ = io.WriteString(w, `{"id":"p1","status":"processing"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":"p1","status":"succeeded","output":"https://replicate.delivery/p1/out.png"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	out, err := client.Run(context.Background(), "black-forest-labs/flux-kontext-pro", map[string]any{"prompt": "ring"})
	require.NoError(t, err)
	assert.Equal(t, URLOutput("https://replicate.delivery/p1/out.png"), out)
	assert.Equal(t, int32(2), polls.Load())
	assert.Equal(t, map[string]any{"prompt": "ring"}, (<-created)["input"])
}

func TestRunWithVersionedModel(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/predictions", r.URL.Path)
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, jsoniter.Unmarshal(data, &body))
		assert.Equal(t, "abc", body["version"])
		_, _ = io.WriteString(w, `{"id":"p2","status":"succeeded","output":["http://x/img.png"]}`)
	})

	out, err := client.Run(context.Background(), "owner/model:abc", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, ListOutput{"http://x/img.png"}, out)
}

func TestRunFailedPrediction(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"p3","status":"failed","error":"NSFW content detected"}`)
	})

	_, err := client.Run(context.Background(), "owner/model", nil)
	var replicateErr *Error
	require.True(t, errors.As(err, &replicateErr))
	assert.Equal(t, "p3", replicateErr.PredictionID)
	assert.Equal(t, "NSFW content detected", replicateErr.Detail)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestRunAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"title":"Input validation failed","detail":"input_image: invalid","status":422}`)
	})

	_, err := client.Run(context.Background(), "owner/model", nil)
	var replicateErr *Error
	require.True(t, errors.As(err, &replicateErr))
	assert.Equal(t, http.StatusUnprocessableEntity, replicateErr.StatusCode)
	assert.Equal(t, "Input validation failed", replicateErr.Title)
	assert.Equal(t, "input_image: invalid", replicateErr.Detail)
}

func TestRunAPIErrorWithoutProblemBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	})

	_, err := client.Run(context.Background(), "owner/model", nil)
	var replicateErr *Error
	require.True(t, errors.As(err, &replicateErr))
	assert.Equal(t, "Bad Gateway", replicateErr.Title)
	assert.Equal(t, "upstream down", replicateErr.Detail)
}

func TestRunWithoutToken(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client.token = ""

	_, err := client.Run(context.Background(), "owner/model", nil)
	var replicateErr *Error
	require.True(t, errors.As(err, &replicateErr))
	assert.Equal(t, http.StatusUnauthorized, replicateErr.StatusCode)
	assert.Zero(t, calls.Load())
}

func TestRunHonorsContextDeadline(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"p4","status":"processing"}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Run(ctx, "owner/model", nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
