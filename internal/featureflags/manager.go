// Package featureflags evaluates rollout flags configured through FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// FeedAggregation routes feed listings through the single-query aggregation path.
const FeedAggregation = "feed_aggregation"

// rollout is a parsed flag value. percent is -1 when the value was not understood.
type rollout struct {
	raw     string
	percent int
}

func parseRollout(value string) rollout {
	r := rollout{raw: value, percent: -1}
	switch value {
	case "on", "true", "1":
		r.percent = 100
	case "off", "false", "0":
		r.percent = 0
	default:
		if pct, ok := strings.CutSuffix(value, "%"); ok {
			if n, err := strconv.Atoi(pct); err == nil {
				r.percent = min(max(n, 0), 100)
			}
		}
	}
	return r
}

// Manager holds the rollouts parsed from a FEATURE_FLAGS string such as
// "feed_aggregation=25%,other=off".
type Manager struct {
	flags map[string]rollout
}

// NewManager parses a comma-separated name=value list. Pairs without a name
// or a value are skipped; unknown values are kept but never enable the flag.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]rollout)}
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		m.flags[name] = parseRollout(value)
	}
	return m
}

// Enabled reports whether name is on for userID. Partial rollouts bucket
// users deterministically and never include anonymous (zero) viewers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.flags[normalize(name)]
	if !ok || r.percent <= 0 {
		return false
	}
	if r.percent == 100 {
		return true
	}
	return userID != 0 && bucket(name, userID) < r.percent
}

// Raw returns the configured values keyed by normalized flag name.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string)
	if m == nil {
		return out
	}
	for name, r := range m.flags {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name)))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
