// Package system manages the lifecycle of long-running background services.
package system

import (
	"context"
	"fmt"

	"github.com/shabikihub/shabiki/pkg/logger"
)

// Service is a long-running component with an explicit lifecycle.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager starts registered services in order and stops them in reverse.
type Manager struct {
	services []Service
	started  []Service
	log      *logger.Logger
}

// NewManager creates an empty service manager.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("system")
	}
	return &Manager{log: log}
}

// Register adds a service. Registration order is start order.
func (m *Manager) Register(svc Service) {
	m.services = append(m.services, svc)
}

// Start starts every registered service. On failure, services already started
// are stopped in reverse before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	for _, svc := range m.services {
		m.log.WithField("service", svc.Name()).Info("starting service")
		if err := svc.Start(ctx); err != nil {
			m.Stop(ctx)
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
		m.started = append(m.started, svc)
	}
	return nil
}

// Stop stops started services in reverse order. All services are attempted;
// errors are logged, not returned.
func (m *Manager) Stop(ctx context.Context) {
	for i := len(m.started) - 1; i >= 0; i-- {
		svc := m.started[i]
		m.log.WithField("service", svc.Name()).Info("stopping service")
		if err := svc.Stop(ctx); err != nil {
			m.log.WithError(err).WithField("service", svc.Name()).Error("failed to stop service")
		}
	}
	m.started = nil
}
