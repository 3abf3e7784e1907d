package service

// MetricsRecorder receives business counters from the usecase layer.
type MetricsRecorder interface {
	ObserveCartMutation(operation string)
	ObserveCheckout(result string, units int)
}

// NopMetricsRecorder discards everything.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) ObserveCartMutation(string) {}

func (NopMetricsRecorder) ObserveCheckout(string, int) {}
