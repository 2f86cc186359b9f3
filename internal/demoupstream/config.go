package demoupstream

// Config holds configuration for the demo upstream.
type Config struct {
	// Port is the port on which the demo upstream listens.
	Port int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port: 9999,
	}
}
