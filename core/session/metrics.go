package session

// Metrics receives counters from the session layer. The services/metrics package
// provides the prometheus-backed implementation.
type Metrics interface {
	AuthOperation(op string)
	AuthError(code string)
	AuthEvent(typ string)
	ProfileFetchFailure()
	VerificationFinalized()
}

type nopMetrics struct{}

func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) AuthOperation(string)   {}
func (nopMetrics) AuthError(string)       {}
func (nopMetrics) AuthEvent(string)       {}
func (nopMetrics) ProfileFetchFailure()   {}
func (nopMetrics) VerificationFinalized() {}
