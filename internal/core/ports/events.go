package ports

import (
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
)

const (
	TopicSyncStarted  = "sync-started"
	TopicSyncProgress = "sync-progress"
	TopicSyncComplete = "sync-complete"
	TopicSyncError    = "sync-error"

	TopicScanProgress = "scan-progress"
	TopicScanComplete = "scan-complete"
	TopicScanMatch    = "scan-match"
	TopicScanError    = "scan-error"

	TopicBalanceRefreshStarted   = "balance-refresh-started"
	TopicBalanceRefreshProgress  = "balance-refresh-progress"
	TopicBalanceRefreshComplete  = "balance-refresh-complete"
	TopicBalanceRefreshCancelled = "balance-refresh-cancelled"

	TopicPlanExecutionStarted  = "plan-execution-started"
	TopicPlanExecutionProgress = "plan-execution-progress"
	TopicPlanExecutionComplete = "plan-execution-complete"
	TopicPlanExecutionError    = "plan-execution-error"
)

// Topics lists all the lifecycle event topics.
var Topics = []string{
	TopicSyncStarted, TopicSyncProgress, TopicSyncComplete, TopicSyncError,
	TopicScanProgress, TopicScanComplete, TopicScanMatch, TopicScanError,
	TopicBalanceRefreshStarted, TopicBalanceRefreshProgress,
	TopicBalanceRefreshComplete, TopicBalanceRefreshCancelled,
	TopicPlanExecutionStarted, TopicPlanExecutionProgress,
	TopicPlanExecutionComplete, TopicPlanExecutionError,
}

// Event is a lifecycle event. Only the fields relevant to the topic are set.
type Event struct {
	ID          string             `json:"id"`
	Topic       string             `json:"topic"`
	WalletID    string             `json:"wallet_id,omitempty"`
	Environment domain.Environment `json:"environment,omitempty"`
	NetworkSlug string             `json:"network,omitempty"`
	Address     string             `json:"address,omitempty"`
	Progress    float64            `json:"progress"`
	Reason      string             `json:"reason,omitempty"`
	Error       string             `json:"error,omitempty"`
	Data        map[string]string  `json:"data,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// EventHandler is invoked for every event published on a subscribed topic.
type EventHandler func(Event)

// EventBus fans lifecycle events out to independent subscribers. Publishing
// never blocks on slow subscribers.
type EventBus interface {
	Publish(event Event)
	// Subscribe registers the handler for the topic, or for every topic if
	// domain.AnyTopic. The returned id is used to unsubscribe.
	Subscribe(topic string, handler EventHandler) string
	Unsubscribe(id string)
	Close()
}
