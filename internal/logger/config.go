package logger

import (
	"strings"
	"sync"
)

// Level controls which messages a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the canonical lowercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// ParseLevel converts a level name into a Level. Unknown names fall back
// to LevelError, matching the most conservative default.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	default:
		return LevelError
	}
}

// Config is the process-wide, observable logging configuration. Every
// Logger registers itself as a listener; Update pushes a new level to all
// of them, and Teardown deregisters everything. It is injected into
// components instead of living behind a package-level singleton.
type Config struct {
	mu        sync.RWMutex
	level     Level
	listeners map[*Logger]struct{}
}

// NewConfig creates a configuration seeded with the given level name.
func NewConfig(level string) *Config {
	return &Config{
		level:     ParseLevel(level),
		listeners: make(map[*Logger]struct{}),
	}
}

// Level returns the currently configured level.
func (c *Config) Level() Level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// Update sets a new level and pushes it to every registered logger.
func (c *Config) Update(level string) {
	c.mu.Lock()
	c.level = ParseLevel(level)
	for l := range c.listeners {
		l.setLevel(c.level)
	}
	c.mu.Unlock()
}

// Teardown deregisters all listeners. Loggers keep working with their
// last pushed level but no longer receive updates.
func (c *Config) Teardown() {
	c.mu.Lock()
	c.listeners = make(map[*Logger]struct{})
	c.mu.Unlock()
}

func (c *Config) register(l *Logger) Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[l] = struct{}{}
	return c.level
}

func (c *Config) deregister(l *Logger) {
	c.mu.Lock()
	delete(c.listeners, l)
	c.mu.Unlock()
}
