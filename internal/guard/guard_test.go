package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Decide(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name       string
		path       string
		hasSession bool
		want       Decision
	}{
		{"protected without session", "/dashboard/settings", false,
			Decision{Action: Redirect, Location: "/login?redirect=/dashboard/settings"}},
		{"dashboard root without session", "/dashboard", false,
			Decision{Action: Redirect, Location: "/login?redirect=/dashboard"}},
		{"protected with session", "/dashboard/settings", true, Decision{Action: Allow}},
		{"login with session", "/login", true, Decision{Action: Redirect, Location: "/dashboard"}},
		{"signup with session", "/signup", true, Decision{Action: Redirect, Location: "/dashboard"}},
		{"login without session", "/login", false, Decision{Action: Allow}},
		{"public page", "/alice", false, Decision{Action: Allow}},
		{"lookalike prefix", "/dashboards", false, Decision{Action: Allow}},
		{"query breaking path", "/dashboard/a&b", false,
			Decision{Action: Redirect, Location: "/login?redirect=/dashboard/a%26b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Decide(tt.path, tt.hasSession))
		})
	}
}
