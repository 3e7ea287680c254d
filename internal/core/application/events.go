package application

import (
	"sync"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application/planner"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
)

// planTracker publishes the lifecycle events of a plan execution. Progress
// is the percentage of terminated commands.
type planTracker struct {
	bus   ports.EventBus
	event ports.Event
	total int

	lock sync.Mutex
	done int
}

func newPlanTracker(bus ports.EventBus, plan *planner.Plan) *planTracker {
	event := ports.Event{
		NetworkSlug: plan.Intent.Network,
		Data:        planData(plan),
	}
	if len(plan.Consumed) > 0 {
		event.WalletID = plan.Consumed[0].WalletID
		event.Environment = plan.Consumed[0].Environment
	}
	return &planTracker{bus: bus, event: event, total: plan.Commands()}
}

func (t *planTracker) started() {
	t.publish(ports.TopicPlanExecutionStarted, 0, nil)
}

func (t *planTracker) observe(node *domain.CommandNode, res domain.ExecutionResult) {
	t.lock.Lock()
	t.done++
	progress := float64(t.done) / float64(t.total) * 100
	t.lock.Unlock()

	event := t.event
	event.Data = copyData(t.event.Data)
	event.Data["command"] = node.Name
	event.Data["command_id"] = node.ID
	if !res.Success && res.Err != nil {
		event.Error = res.Err.Error()
	}
	event.Topic = ports.TopicPlanExecutionProgress
	event.Progress = progress
	t.bus.Publish(event)
}

func (t *planTracker) completed() {
	t.publish(ports.TopicPlanExecutionComplete, 100, nil)
}

func (t *planTracker) failed(err error) {
	t.lock.Lock()
	progress := float64(t.done) / float64(t.total) * 100
	t.lock.Unlock()

	t.publish(ports.TopicPlanExecutionError, progress, err)
}

func (t *planTracker) publish(topic string, progress float64, err error) {
	event := t.event
	event.Data = copyData(t.event.Data)
	event.Topic = topic
	event.Progress = progress
	if err != nil {
		event.Error = err.Error()
	}
	t.bus.Publish(event)
}

func copyData(data map[string]string) map[string]string {
	m := make(map[string]string, len(data))
	for k, v := range data {
		m[k] = v
	}
	return m
}
