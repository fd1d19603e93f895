package inject

import (
	"fmt"

	"github.com/reusedev/sketch-relay/config"
	"github.com/reusedev/sketch-relay/internal/modules/ai/replicate"
	"github.com/reusedev/sketch-relay/internal/modules/generation"
	"github.com/reusedev/sketch-relay/internal/modules/logs"
	"github.com/reusedev/sketch-relay/internal/service/http"
	"github.com/reusedev/sketch-relay/internal/service/http/handler"
	"github.com/samber/do"
)

func Setup(cfg *config.Config) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			logs.Logger.Debug().Msg(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[*config.Config](injector, cfg)

	do.Provide[generation.Predictor](injector, func(i *do.Injector) (generation.Predictor, error) {
		return replicate.NewClient(do.MustInvoke[*config.Config](i).Replicate), nil
	})
	do.Provide[generation.Downloader](injector, func(i *do.Injector) (generation.Downloader, error) {
		return generation.NewHTTPDownloader(do.MustInvoke[*config.Config](i).Generation.DownloadTimeoutDuration()), nil
	})
	do.Provide[handler.Generator](injector, func(i *do.Injector) (handler.Generator, error) {
		return generation.NewRelay(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[generation.Predictor](i),
			do.MustInvoke[generation.Downloader](i),
		), nil
	})
	do.Provide[*handler.Handler](injector, func(i *do.Injector) (*handler.Handler, error) {
		return handler.NewHandler(do.MustInvoke[*config.Config](i), do.MustInvoke[handler.Generator](i)), nil
	})
	do.Provide[*http.Server](injector, func(i *do.Injector) (*http.Server, error) {
		return http.NewServer(do.MustInvoke[*config.Config](i), do.MustInvoke[*handler.Handler](i)), nil
	})

	return injector
}
