package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "devfolio"

var registerOnce sync.Once

// Register 将全部采集器注册到默认 registry，可重复调用。
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			requestDuration, requestTotal, requestsInFlight,
			backendDuration, backendTotal,
			sessionsActive,
			taskDuration, taskProcessedTotal, taskInProgress,
		)
	})
}
