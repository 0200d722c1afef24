package monitor

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/luki/modbusmon/internal/config"
	"github.com/luki/modbusmon/internal/logger"
	"github.com/luki/modbusmon/internal/sampler"
	"github.com/luki/modbusmon/internal/sensor"
	"github.com/luki/modbusmon/internal/store"
)

// Run launches the live monitor and blocks until the user quits or ctx is
// cancelled. The sampler is stopped before Run returns.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ls, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}

	s, err := sampler.New(ls, cfg.Sensors,
		sampler.WithLogger(logger.Component(log, "sampler")),
		sampler.WithSource(sensor.NewSynthetic(cfg.Seed)),
		sampler.WithCapacity(cfg.Capacity),
	)
	if err != nil {
		return err
	}
	defer s.Stop()

	p := tea.NewProgram(
		New(ctx, s, cfg, logger.Component(log, "monitor")),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	log.Info().Str("dir", ls.Dir()).Int("sensors", cfg.Sensors).Msg("monitor starting")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}
