// Package featureflags evaluates runtime switches such as the index page cache.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	IndexCache = "index_cache"
	Events     = "events"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "index_cache=on,events=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user; unknown flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	return m.EnabledOr(name, userID, false)
}

// EnabledOr is Enabled with an explicit default for flags that are not configured.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic per-user rollout; anonymous users are excluded)
func (m *Manager) EnabledOr(name string, userID uint, def bool) bool {
	if m == nil {
		return def
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return def
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, ok := percent(value)
	if !ok || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Switch evaluates a process-wide flag such as events. There is no user to
// bucket, so any positive percentage counts as on.
func (m *Manager) Switch(name string, def bool) bool {
	if m == nil {
		return def
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return def
	}
	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}
	pct, ok := percent(value)
	return ok && pct > 0
}

func percent(value string) (int, bool) {
	raw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pct, true
}

// Snapshot returns the effective value of every configured flag plus the
// built-in ones, evaluated for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := map[string]bool{
		IndexCache: m.EnabledOr(IndexCache, userID, true),
		Events:     m.Switch(Events, true),
	}
	if m == nil {
		return out
	}
	for name := range m.flags {
		if _, builtin := out[name]; !builtin {
			out[name] = m.Enabled(name, userID)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
