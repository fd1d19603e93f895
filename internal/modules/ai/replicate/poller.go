package replicate

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type predictionGetter interface {
	GetPrediction(ctx context.Context, pred *Prediction) (*Prediction, error)
}

type Poller struct {
	Getter          predictionGetter
	RequestInterval time.Duration
}

func NewPoller(getter predictionGetter, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		Getter:          getter,
		RequestInterval: interval,
	}
}

// Wait polls pred until it reaches a terminal status or ctx is done.
func (p *Poller) Wait(ctx context.Context, pred *Prediction) (*Prediction, error) {
	t := time.NewTicker(p.RequestInterval)
	defer t.Stop()
	for !pred.Status.Terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
		next, err := p.Getter.GetPrediction(ctx, pred)
		if err != nil {
			return nil, err
		}
		if next.Status != pred.Status {
			zerolog.Ctx(ctx).Info().
				Str("prediction_id", next.ID).
				Str("status", next.Status.String()).
				Msg("prediction status changed")
		}
		pred = next
	}
	return pred, nil
}
