package monitor

import (
	"context"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
)

// DefaultRefreshInterval is used when Config.RefreshInterval is zero.
const DefaultRefreshInterval = time.Minute

// Config holds the configuration for the live monitor.
type Config struct {
	// ProjectIDs to aggregate. Empty follows every project in the source,
	// including projects that appear while monitoring.
	ProjectIDs []string

	// RefreshInterval is the interval between periodic reloads.
	RefreshInterval time.Duration
}

// Source is the reloadable data directory being monitored.
type Source interface {
	// Dir is the directory watched for changes.
	Dir() string

	// Reload rereads the directory.
	Reload() error

	// ProjectIDs lists the projects currently loaded.
	ProjectIDs() []string
}

// LiveMonitor re-aggregates costs when data files change.
type LiveMonitor interface {
	// Start watches the source and issues the initial request.
	// It returns once monitoring is running.
	Start(ctx context.Context) error

	// Stop stops monitoring. A stopped monitor cannot be restarted.
	Stop() error

	// Updates streams orchestrator states annotated with their trigger.
	// The channel is closed by Close.
	Updates() <-chan Update

	// Close stops monitoring and closes the updates channel.
	Close() error
}

// Trigger names what caused a re-aggregation.
type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerFile    Trigger = "file"
	TriggerTick    Trigger = "tick"
)

// Update represents a live monitoring update event.
type Update struct {
	// Timestamp of the update
	Timestamp time.Time

	// Trigger of the request that produced State.
	Trigger Trigger

	// State is the orchestrator snapshot.
	State orchestrator.State

	// Delta is the change in total cost since the previous settled
	// result. Zero for loading states and the first result.
	Delta float64
}
