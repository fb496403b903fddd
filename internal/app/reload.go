package app

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/drinkpos/internal/menu"
)

// WatchMenuReload re-reads the menu file each time a signal arrives on sig and hands the
// result to apply. An empty result keeps the current menu. It returns when ctx ends or sig
// is closed.
func WatchMenuReload(ctx context.Context, sig <-chan os.Signal, path string, logger zerolog.Logger, apply func(*menu.Catalog)) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-sig:
			if !ok {
				return
			}
			logger.Info().Str("signal", s.String()).Str("path", path).Msg("menu reload requested")
			catalog := LoadMenu(path, logger)
			if catalog.Len() == 0 {
				logger.Warn().Str("path", path).Msg("reloaded menu is empty, keeping the current one")
				continue
			}
			apply(catalog)
		}
	}
}
