package uptime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartedMessage(t *testing.T) {
	started := time.Unix(1700000000, 0)
	want := "Absolute: <t:1700000000:T>\nShort:    <t:1700000000:f>\nRelative: <t:1700000000:R>"
	assert.Equal(t, want, startedMessage(started))
}

func TestCommandsDeclared(t *testing.T) {
	c := New(time.Now())
	names := make([]string, 0)
	for _, cmd := range c.Commands() {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"uptime", "started"}, names)
}
