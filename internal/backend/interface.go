package backend

import (
	"context"

	"cashflow/internal/amqp"
	"cashflow/internal/services"
	"cashflow/internal/storage"
)

// CleanupFunc releases the resources opened by a factory.
type CleanupFunc func() error

// BackendResult is an opened ledger store plus the optional event broker.
type BackendResult struct {
	Store storage.Store
	// Publisher is nil when event publishing is disabled.
	Publisher services.MovementPublisher
	// Broker is the AMQP client behind Publisher, nil when disabled.
	Broker *amqp.Client
	// Repository is set for the sqlite backend only.
	Repository *storage.SQLiteRepository
	// Ready reports whether the store answers.
	Ready func(ctx context.Context) error
	// Version changes when another process writes to the store. Nil for
	// the memory backend, which no other process can reach.
	Version func(ctx context.Context) (int64, error)
	Cleanup CleanupFunc
}

// Factory opens backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP is optional; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// AMQPPrefetch bounds unacknowledged deliveries for consumers.
	AMQPPrefetch int
	// RequireBroker turns a failed AMQP dial into an error instead of a
	// warning. Consumers set it; the API server does not.
	RequireBroker bool
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
