package vm

import "github.com/ethereum/go-ethereum/metrics"

var (
	callCounter        = metrics.NewRegisteredCounter("xcall/invoke/call", nil)
	delegateCounter    = metrics.NewRegisteredCounter("xcall/invoke/delegate", nil)
	instantiateCounter = metrics.NewRegisteredCounter("xcall/invoke/instantiate", nil)
	failedCounter      = metrics.NewRegisteredCounter("xcall/invoke/failed", nil)
	tailCallCounter    = metrics.NewRegisteredCounter("xcall/invoke/tailcall", nil)
	hazardCounter      = metrics.NewRegisteredCounter("xcall/hazard/tailcall", nil)

	flushedSlotsMeter = metrics.NewRegisteredMeter("xcall/flush/slots", nil)
	execTimer         = metrics.NewRegisteredTimer("xcall/exec", nil)
)

func countInvocation(style Style) {
	switch style {
	case StyleDelegateCall:
		delegateCounter.Inc(1)
	case StyleInstantiate:
		instantiateCounter.Inc(1)
	default:
		callCounter.Inc(1)
	}
}

// Counters returns the invocation counters since process start, keyed by
// metric name.
func Counters() map[string]int64 {
	return map[string]int64{
		"call":        callCounter.Snapshot().Count(),
		"delegate":    delegateCounter.Snapshot().Count(),
		"instantiate": instantiateCounter.Snapshot().Count(),
		"failed":      failedCounter.Snapshot().Count(),
		"tailcall":    tailCallCounter.Snapshot().Count(),
		"hazard":      hazardCounter.Snapshot().Count(),
	}
}
