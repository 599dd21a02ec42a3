package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RedirectConfigHolder serves the current redirect targets. When a
// payrelay.yml is in use, edits to it are picked up without a restart.
type RedirectConfigHolder struct {
	current atomic.Value // holds RedirectConfig
}

func NewRedirectConfigHolder(cfg Config) *RedirectConfigHolder {
	holder := &RedirectConfigHolder{}
	holder.current.Store(cfg.Redirect)
	return holder
}

// WatchRedirectConfig reloads redirect targets from the config file, if any.
func WatchRedirectConfig(holder *RedirectConfigHolder, log *zap.Logger) error {
	v, err := newViper()
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.redirect")

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := readRedirect(v)
		if err := validateRedirectConfig(updated); err != nil {
			log.Warn("invalid redirect config ignored", zap.Error(err))
			return
		}
		holder.Set(updated)
		log.Info("redirect config reloaded", zap.String("file", e.Name))
	})
	return nil
}

func (h *RedirectConfigHolder) Get() RedirectConfig {
	if h == nil {
		return RedirectConfig{}
	}
	cfg, _ := h.current.Load().(RedirectConfig)
	return cfg
}

func (h *RedirectConfigHolder) Set(cfg RedirectConfig) {
	if h == nil {
		return
	}
	h.current.Store(cfg)
}

func validateRedirectConfig(cfg RedirectConfig) error {
	if strings.TrimSpace(cfg.AppScheme) == "" {
		return errors.New("app_url_scheme cannot be empty")
	}
	if strings.TrimSpace(cfg.FailureURL) == "" {
		return errors.New("payment_failure_url cannot be empty")
	}
	return nil
}
