package dispatch

// Config defines the dispatcher concurrency. Zero limits run every request at
// once.
type Config struct {
	// MaxParallel caps concurrent runs across engines.
	MaxParallel int `yaml:"max_parallel"`
	// ByEngine defines per-engine concurrency limits.
	ByEngine map[string]int `yaml:"by_engine,omitempty"`
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxParallel: 0,
		ByEngine:    map[string]int{},
	}
}

// EngineLimit returns the concurrency limit for an engine.
func (c *Config) EngineLimit(engine string) int {
	if c == nil {
		return 0
	}
	if limit, ok := c.ByEngine[engine]; ok {
		return limit
	}
	return c.MaxParallel
}
