package switchcontroller

// Logger is the narrow logging surface the controller consumes. It is
// satisfied directly by internal/logging's zerolog wrapper; tests and
// callers that don't care about log output can leave it unset and get
// noopLogger.
//
// Defined here rather than importing internal/logging directly, so that
// switchcontroller has no dependency on any particular logging backend —
// the same shape the reference's module-level self.log attribute gives
// the Python switch controller, minus the backend coupling.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}

// Stats is the narrow metrics surface the controller consumes. It is
// satisfied by internal/metrics's Prometheus bundle; a Controller with no
// Stats option set observes noopStats instead of nil-checking everywhere.
type Stats interface {
	ObserveTransition(state int)
	ObserveJitter()
	ObserveUnknownReport()
}

type noopStats struct{}

func (noopStats) ObserveTransition(int) {}
func (noopStats) ObserveJitter()        {}
func (noopStats) ObserveUnknownReport() {}
