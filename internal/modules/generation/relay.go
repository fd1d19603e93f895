// Package generation turns an uploaded sketch into a generated photo by way
// of a remote prediction.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/reusedev/sketch-relay/config"
	"github.com/reusedev/sketch-relay/internal/modules/ai/replicate"
	"github.com/reusedev/sketch-relay/internal/modules/http_client"
	"github.com/reusedev/sketch-relay/internal/modules/image"
	"github.com/reusedev/sketch-relay/tools"
	"github.com/rs/zerolog"
)

var (
	ErrUnexpectedOutput = errors.New("unexpected output from prediction")
	ErrTimeout          = errors.New("request timed out")
	ErrDownload         = errors.New("download generated image")
)

type Predictor interface {
	Run(ctx context.Context, model string, input any) (replicate.Output, error)
}

type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type Optimizer interface {
	OptimizeToDataURL(data []byte) (string, error)
}

type HTTPDownloader struct {
	client *http_client.HttpClient
}

func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{client: http_client.NewWithTimeout(timeout)}
}

func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	return tools.GetOnlineImage(ctx, d.client, url)
}

type Relay struct {
	predictor  Predictor
	downloader Downloader
	optimizer  Optimizer

	model              string
	defaultDescription string
	outputFormat       string
	aspectRatio        string
	guidanceScale      float64
	predictionTimeout  time.Duration
}

func NewRelay(cfg *config.Config, predictor Predictor, downloader Downloader) *Relay {
	return &Relay{
		predictor:          predictor,
		downloader:         downloader,
		optimizer:          image.NewOptimizer(cfg.Generation.MaxEdge, cfg.Generation.JPEGQuality),
		model:              cfg.Replicate.Model,
		defaultDescription: cfg.Generation.DefaultDescription,
		outputFormat:       cfg.Generation.OutputFormat,
		aspectRatio:        cfg.Generation.AspectRatio,
		guidanceScale:      cfg.Generation.GuidanceScale,
		predictionTimeout:  cfg.Replicate.PredictionTimeoutDuration(),
	}
}

// Generate optimizes the upload, runs the prediction and returns the bytes of
// the generated image. Nothing is retried.
func (r *Relay) Generate(ctx context.Context, in Input) ([]byte, error) {
	log := zerolog.Ctx(ctx)
	description := r.description(in.Description)
	log.Info().
		Int("upload_bytes", len(in.Image)).
		Str("description", description).
		Msg("generation request")

	dataURL, err := r.optimizer.OptimizeToDataURL(in.Image)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("data_url_len", len(dataURL)).Msg("image optimized")

	predictCtx, cancel := context.WithTimeout(ctx, r.predictionTimeout)
	defer cancel()
	start := time.Now()
	output, err := r.predictor.Run(predictCtx, r.model, r.newRequest(description, dataURL))
	if err != nil {
		return nil, classify(err)
	}
	log.Info().
		Str("model", r.model).
		Str("output_type", fmt.Sprintf("%T", output)).
		Dur("predict_consume_ms", time.Since(start)).
		Msg("prediction finished")

	data, err := r.resolve(ctx, output)
	if err != nil {
		return nil, err
	}
	log.Info().Int("image_bytes", len(data)).Msg("generated image ready")
	return data, nil
}

// resolve reduces a prediction output to image bytes, downloading when the
// output points at a URL.
func (r *Relay) resolve(ctx context.Context, output replicate.Output) ([]byte, error) {
	var url string
	switch o := output.(type) {
	case replicate.FileOutput:
		url = o.URL()
	case replicate.URLOutput:
		url = string(o)
	case replicate.ListOutput:
		if len(o) == 0 {
			return nil, fmt.Errorf("%w: empty list", ErrUnexpectedOutput)
		}
		url = o[0]
	case replicate.BytesOutput:
		return o, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedOutput, output)
	}
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", ErrUnexpectedOutput)
	}

	zerolog.Ctx(ctx).Info().Str("url", url).Msg("downloading generated image")
	data, err := r.downloader.Download(ctx, url)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	return data, nil
}

func classify(err error) error {
	var replicateErr *replicate.Error
	if errors.As(err, &replicateErr) {
		return err
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
