package fiber

import (
	"time"

	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
)

// instrumentedExecutor records batch metrics around another Executor.
// A batch aborted by a panic is still recorded.
type instrumentedExecutor struct {
	next    core.Executor
	name    string
	metrics *metrics.Registry
}

func (e instrumentedExecutor) ExecuteAll(cmds []core.Command) {
	start := time.Now()
	defer func() {
		e.metrics.FiberBatches.WithLabelValues(e.name).Inc()
		e.metrics.FiberCommandsExecuted.WithLabelValues(e.name).Add(float64(len(cmds)))
		e.metrics.FiberBatchSize.WithLabelValues(e.name).Observe(float64(len(cmds)))
		e.metrics.FiberBatchDuration.WithLabelValues(e.name).Observe(time.Since(start).Seconds())
	}()

	e.next.ExecuteAll(cmds)
}
