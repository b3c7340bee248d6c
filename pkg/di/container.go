// Package di provides the dependency injection container internal/cmd
// uses to assemble a Supervisor, following the teacher's pkg/di pattern
// of swappable factories rather than global constructors.
package di

import (
	"github.com/demile-15/ConcurrentDB/pkg/logging"
	"github.com/demile-15/ConcurrentDB/pkg/metrics"
	"github.com/demile-15/ConcurrentDB/pkg/supervisor"
	"github.com/demile-15/ConcurrentDB/pkg/tree"
	"github.com/sirupsen/logrus"
)

// LoggerFactory builds the process-wide logger for a given level name.
type LoggerFactory func(level string) *logrus.Logger

// SupervisorFactory builds a Supervisor around a fresh tree.
type SupervisorFactory func(log *logrus.Logger, collector *metrics.Collector) *supervisor.Supervisor

// Container holds the factories the CLI wires together. Tests can
// override either factory without touching command construction.
type Container struct {
	loggerFactory     LoggerFactory
	supervisorFactory SupervisorFactory
}

// NewContainer returns a Container wired to the real implementations.
func NewContainer() *Container {
	return &Container{
		loggerFactory: logging.New,
		supervisorFactory: func(log *logrus.Logger, collector *metrics.Collector) *supervisor.Supervisor {
			return supervisor.New(tree.New(), log, collector)
		},
	}
}

// Logger builds a logger at the given level.
func (c *Container) Logger(level string) *logrus.Logger {
	return c.loggerFactory(level)
}

// Supervisor builds a fresh Supervisor.
func (c *Container) Supervisor(log *logrus.Logger, collector *metrics.Collector) *supervisor.Supervisor {
	return c.supervisorFactory(log, collector)
}

// SetLoggerFactory overrides the logger factory (for testing).
func (c *Container) SetLoggerFactory(f LoggerFactory) {
	c.loggerFactory = f
}

// SetSupervisorFactory overrides the supervisor factory (for testing).
func (c *Container) SetSupervisorFactory(f SupervisorFactory) {
	c.supervisorFactory = f
}
