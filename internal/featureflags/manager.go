// Package featureflags evaluates runtime flags parsed from FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Flags read by the application.
const (
	// RealtimeChat gates the chat WebSocket endpoint. Polling always works.
	RealtimeChat = "realtime_chat"
	// NotifyBuyerOnReply makes seller replies notify the buyer as well.
	NotifyBuyerOnReply = "notify_buyer_on_reply"
)

// Manager evaluates flags from a key=value list such as
// "realtime_chat=on,notify_buyer_on_reply=25%".
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
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

// Enabled returns whether a flag is enabled for a given user.
// Values: on/true/1, off/false/0, or N% for a deterministic per-user rollout.
// Unknown flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
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

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot returns evaluated flag status for one user.
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

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
