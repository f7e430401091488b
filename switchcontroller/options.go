package switchcontroller

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithLogger overrides the controller's logger. Nil is ignored.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStats overrides the controller's metrics sink. Nil is ignored.
func WithStats(s Stats) Option {
	return func(c *Controller) {
		if s != nil {
			c.stats = s
		}
	}
}
