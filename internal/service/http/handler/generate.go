package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/sketch-relay/internal/consts"
	"github.com/reusedev/sketch-relay/internal/modules/ai/replicate"
	"github.com/reusedev/sketch-relay/internal/modules/generation"
	"github.com/reusedev/sketch-relay/internal/service/http/handler/request"
	"github.com/reusedev/sketch-relay/internal/service/http/handler/response"
	"github.com/rs/zerolog"
)

func (h *Handler) Generate(c *gin.Context) {
	log := zerolog.Ctx(c.Request.Context())
	form := request.Generate{}
	err := c.ShouldBind(&form)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		log.Warn().Int64("limit", tooLarge.Limit).Msg("generate-upload too large")
		c.JSON(http.StatusRequestEntityTooLarge, response.TooLargeError)
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("generate-bind form")
		c.JSON(http.StatusBadRequest, response.NoFileError)
		return
	}
	if err := form.Valid(); err != nil {
		log.Warn().Err(err).Msg("generate-missing file")
		c.JSON(http.StatusBadRequest, response.NoFileError)
		return
	}
	data, err := form.ReadFile()
	if err != nil {
		log.Err(err).Msg("generate-read upload")
		c.JSON(http.StatusInternalServerError, response.InternalError(err.Error()))
		return
	}
	log.Info().Str("file", form.File.Filename).Int64("size", form.File.Size).Msg("generate-upload received")

	img, err := h.generator.Generate(c.Request.Context(), generation.Input{
		Image:       data,
		Description: form.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, consts.MimePNG, img)
}

func writeError(c *gin.Context, err error) {
	log := zerolog.Ctx(c.Request.Context())
	var replicateErr *replicate.Error
	switch {
	case errors.As(err, &replicateErr):
		log.Err(err).Msg("generate-replicate error")
		c.JSON(http.StatusInternalServerError, response.ReplicateError(replicateErr.Error()))
	case errors.Is(err, generation.ErrTimeout):
		log.Err(err).Msg("generate-timeout")
		c.JSON(http.StatusGatewayTimeout, response.TimeoutError)
	default:
		log.Err(err).Msg("generate-internal error")
		c.JSON(http.StatusInternalServerError, response.InternalError(err.Error()))
	}
}
