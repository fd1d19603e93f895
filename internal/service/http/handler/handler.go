package handler

import (
	"context"

	"github.com/reusedev/sketch-relay/config"
	"github.com/reusedev/sketch-relay/internal/modules/generation"
)

type Generator interface {
	Generate(ctx context.Context, in generation.Input) ([]byte, error)
}

type Handler struct {
	cfg       *config.Config
	generator Generator
}

func NewHandler(cfg *config.Config, generator Generator) *Handler {
	return &Handler{
		cfg:       cfg,
		generator: generator,
	}
}
