// Package guard decides whether a page request may proceed based on whether
// the caller has a session.
package guard

import (
	"net/url"
	"strings"
)

type Action int

const (
	Allow Action = iota
	Redirect
)

type Decision struct {
	Action   Action
	Location string
}

type Policy struct {
	ProtectedPrefix string
	LoginPath       string
	DashboardPath   string
	AuthOnly        []string
}

func DefaultPolicy() Policy {
	return Policy{
		ProtectedPrefix: "/dashboard",
		LoginPath:       "/login",
		DashboardPath:   "/dashboard",
		AuthOnly:        []string{"/login", "/signup"},
	}
}

// Decide is pure: it never issues or refreshes a session.
func (p Policy) Decide(path string, hasSession bool) Decision {
	if p.isProtected(path) && !hasSession {
		return Decision{
			Action:   Redirect,
			Location: p.LoginPath + "?redirect=" + returnTarget(path),
		}
	}
	if p.isAuthOnly(path) && hasSession {
		return Decision{Action: Redirect, Location: p.DashboardPath}
	}
	return Decision{Action: Allow}
}

func (p Policy) isProtected(path string) bool {
	prefix := strings.TrimRight(p.ProtectedPrefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func (p Policy) isAuthOnly(path string) bool {
	for _, a := range p.AuthOnly {
		if path == a {
			return true
		}
	}
	return false
}

// returnTarget keeps slashes readable but escapes anything that would end
// the query value early.
func returnTarget(path string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	return strings.NewReplacer("&", "%26", "+", "%2B").Replace(escaped)
}
