package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	assert.True(t, m.Enabled("a", 1))
	assert.True(t, m.Enabled("c", 1))
	assert.True(t, m.Enabled("e", 1))
	assert.False(t, m.Enabled("b", 1))
	assert.False(t, m.Enabled("d", 1))
	assert.False(t, m.Enabled("f", 1))
	assert.False(t, m.Enabled("missing", 1))
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires a user")

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 120)
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,X=on, y = 20% ,z=off,=on,w= ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())

	snap := m.Snapshot(7)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
	assert.Len(t, snap, 3)
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(RealtimeChat, 1))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot(1))
}

func TestDomainFlagsDefaultOff(t *testing.T) {
	m := NewManager("")
	assert.False(t, m.Enabled(NotifyBuyerOnReply, 1))
	assert.False(t, m.Enabled(RealtimeChat, 1))
}
