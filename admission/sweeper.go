/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"context"

	"github.com/acronis/go-quotagate/log"
)

// Sweeper removes expired quota states from the Controller.
// It implements service.Worker and is supposed to be run periodically (e.g., by service.PeriodicWorker).
type Sweeper struct {
	controller *Controller
	logger     log.FieldLogger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(controller *Controller, logger log.FieldLogger) *Sweeper {
	return &Sweeper{controller: controller, logger: logger}
}

// Run does a single sweep.
func (s *Sweeper) Run(_ context.Context) error {
	swept := s.controller.Sweep(s.controller.clock())
	if swept > 0 {
		s.logger.Debug("expired quota states swept",
			log.Int("swept", swept), log.Int("tracked", s.controller.Len()))
	}
	return nil
}
