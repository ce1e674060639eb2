package cache

// Metrics receives cache lifecycle events. Implementations must be safe for
// concurrent use; the store calls them while holding its mutex.
type Metrics interface {
	// Hit is called when a counted read returns a live value.
	Hit()
	// Miss is called when a counted read finds nothing usable.
	Miss()
	// Expired is called once per entry removed because its TTL ran out,
	// whether lazily on read or during a cleanup sweep.
	Expired()
}

// NopMetrics ignores all events. It is the default so callers that do not
// care about metrics need no nil checks.
type NopMetrics struct{}

func (NopMetrics) Hit()     {}
func (NopMetrics) Miss()    {}
func (NopMetrics) Expired() {}
