package replicate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/sketch-relay/config"
	"github.com/reusedev/sketch-relay/internal/modules/http_client"
	"github.com/reusedev/sketch-relay/tools"
	"github.com/rs/zerolog"
)

type Client struct {
	baseURL      string
	token        string
	pollInterval time.Duration
	preferWait   int
	client       *http_client.HttpClient
}

func NewClient(cfg config.Replicate) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		token:        cfg.Token,
		pollInterval: cfg.PollIntervalDuration(),
		preferWait:   cfg.PreferWait,
		client:       http_client.NewWithTimeout(cfg.RequestTimeoutDuration()),
	}
}

// Run creates a prediction for model, waits for it to finish and parses its
// output. Failed or canceled predictions are returned as *Error.
func (c *Client) Run(ctx context.Context, model string, input any) (Output, error) {
	pred, err := c.CreatePrediction(ctx, model, input)
	if err != nil {
		return nil, err
	}
	pred, err = NewPoller(c, c.pollInterval).Wait(ctx, pred)
	if err != nil {
		return nil, err
	}
	if pred.Status != StatusSucceeded {
		return nil, errorFromPrediction(pred)
	}
	return ParseOutput(pred.Output)
}

func (c *Client) CreatePrediction(ctx context.Context, model string, input any) (*Prediction, error) {
	ref, err := ParseModelRef(model)
	if err != nil {
		return nil, err
	}
	request := &createRequest{model: ref, input: input}
	options := []http_client.RequestOption{
		http_client.WithContext(ctx),
		http_client.WithBody(request.Body()),
	}
	if c.preferWait > 0 {
		options = append(options, http_client.WithHeader("Prefer", "wait="+strconv.Itoa(c.preferWait)))
	}
	pred, err := c.do(ctx, http.MethodPost, tools.FullURL(c.baseURL, request.Path()), options...)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("model", ref.String()).
		Str("prediction_id", pred.ID).
		Str("status", pred.Status.String()).
		Msg("prediction created")
	return pred, nil
}

func (c *Client) GetPrediction(ctx context.Context, pred *Prediction) (*Prediction, error) {
	url := pred.URLs.Get
	if url == "" {
		url = tools.FullURL(c.baseURL, "v1/predictions/"+pred.ID)
	}
	return c.do(ctx, http.MethodGet, url, http_client.WithContext(ctx))
}

func (c *Client) do(ctx context.Context, method, url string, options ...http_client.RequestOption) (*Prediction, error) {
	if c.token == "" {
		return nil, &Error{
			StatusCode: http.StatusUnauthorized,
			Title:      "Unauthenticated",
			Detail:     "REPLICATE_API_TOKEN is not configured",
		}
	}
	options = append(options,
		http_client.WithHeader("Authorization", "Bearer "+c.token),
		http_client.WithHeader("Content-Type", "application/json"),
	)
	req, err := c.client.NewRequest(method, url, options...)
	if err != nil {
		return nil, err
	}
	reqAt := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status_code", resp.StatusCode).
		Dur("req_consume_ms", time.Since(reqAt)).
		Msg("replicate request")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorFromResponse(resp.StatusCode, body)
	}
	pred := &Prediction{}
	if err := jsoniter.Unmarshal(body, pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return pred, nil
}
