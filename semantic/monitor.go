package semantic

// Monitor observes retrieval queries. The CLI uses it to print diagnostics.
type Monitor interface {
	Start(query string)
	Finish(matches []Match)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = noopMonitor{}

func (noopMonitor) Start(_ string)    {}
func (noopMonitor) Finish(_ []Match) {}
