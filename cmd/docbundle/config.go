// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/pdiddy/docbundle/internal/assets"
	"github.com/pdiddy/docbundle/internal/container"
	"github.com/pdiddy/docbundle/internal/convert"
	"github.com/pdiddy/docbundle/internal/httputil"
	"github.com/pdiddy/docbundle/internal/secrets"
	"github.com/pdiddy/docbundle/pkg/types"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", 0)
	v.SetDefault("http.user_agent", "docbundle/0.1")
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.retry_delay", httputil.DefaultRetryDelay)
	v.SetDefault("convert.markitdown_image", convert.DefaultMarkitdownImage)
	v.SetDefault("convert.rasterizer_image", convert.DefaultRasterizerImage)
	v.SetDefault("convert.work_dir", "")
	v.SetDefault("convert.caption_api_key", "")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.max_upload_bytes", 64<<20)
}

// conversionConfig reads conversion settings from v. The captioning key
// comes from config or environment first, then the secrets directory.
func conversionConfig(v *viper.Viper, loaded map[string]string) types.ConversionConfig {
	return types.ConversionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    v.GetDuration("http.timeout"),
			UserAgent:  v.GetString("http.user_agent"),
			MaxRetries: v.GetInt("http.max_retries"),
			RetryDelay: v.GetDuration("http.retry_delay"),
		},
		MarkitdownImage: v.GetString("convert.markitdown_image"),
		RasterizerImage: v.GetString("convert.rasterizer_image"),
		WorkDir:         v.GetString("convert.work_dir"),
		CaptionAPIKey:   secrets.CaptionKey(loaded, v.GetString("convert.caption_api_key")),
	}
}

func serverConfig(v *viper.Viper) types.ServerConfig {
	return types.ServerConfig{
		Addr:           v.GetString("serve.addr"),
		MaxUploadBytes: v.GetInt64("serve.max_upload_bytes"),
	}
}

// buildPipeline wires the converters available on this host. Without a
// container runtime only email inputs can be converted; other inputs then
// fail with a missing-dependency error.
func buildPipeline(cfg types.ConversionConfig, logger *slog.Logger) *convert.Pipeline {
	converters := []convert.DocumentConverter{convert.NewEmailConverter()}
	opts := []convert.Option{convert.WithLogger(logger), convert.WithWorkDir(cfg.WorkDir)}

	rt, err := container.DetectRuntime()
	if err != nil {
		logger.Warn("document conversion limited to email", "error", err)
	} else {
		md, err := convert.NewMarkitdownConverter(rt, cfg.MarkitdownImage)
		if err != nil {
			logger.Warn("markitdown unavailable", "error", err)
		} else {
			converters = append(converters, md)
			if cfg.CaptionAPIKey != "" {
				opts = append(opts, convert.WithCaptioner(md.WithCaptioning(cfg.CaptionAPIKey)))
			}
		}

		if cfg.RasterizerImage != "" {
			r, err := convert.NewContainerRasterizer(rt, cfg.RasterizerImage)
			if err != nil {
				logger.Info("PDF page images disabled", "error", err)
			} else {
				opts = append(opts, convert.WithRasterizer(r))
			}
		}
	}

	materializer := assets.NewMaterializer(httputil.NewClient(cfg.HTTPConfig, logger), logger)
	return convert.NewPipeline(convert.NewRouter(converters...), materializer, opts...)
}
