// Package routes decides whether a navigation target is reachable for the
// current session. The guard is a pure function over the path and a session
// snapshot; it never performs I/O.
package routes

import (
	"strings"

	"github.com/dmarquez/catalogkeeper/internal/session"
)

// Action is the guard's verdict kind.
type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
)

// Known route targets.
const (
	PathRoot     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathProducts = "/products"
	PathAdd      = "/products/add"
	editPrefix   = "/products/edit/"
)

// Decision is the outcome of a guard check. Target is set only for redirects.
type Decision struct {
	Action Action
	Target string
}

func allow() Decision {
	return Decision{Action: ActionAllow}
}

func redirect(target string) Decision {
	return Decision{Action: ActionRedirect, Target: target}
}

// Decide applies the rule table: the root always forwards to the product
// list, auth pages are for anonymous sessions only, product pages require an
// authenticated session, and anything unrecognized forwards to whichever of
// those two homes the session qualifies for.
func Decide(path string, s session.State) Decision {
	authenticated := s.IsAuthenticated()

	switch {
	case path == PathRoot:
		return redirect(PathProducts)

	case path == PathLogin || path == PathRegister:
		if authenticated {
			return redirect(PathProducts)
		}
		return allow()

	case isProductPath(path):
		if authenticated {
			return allow()
		}
		return redirect(PathLogin)
	}

	if authenticated {
		return redirect(PathProducts)
	}
	return redirect(PathLogin)
}

// isProductPath matches /products, /products/add and /products/edit/:id
// where :id is a positive integer.
func isProductPath(path string) bool {
	if path == PathProducts || path == PathAdd {
		return true
	}
	id, ok := strings.CutPrefix(path, editPrefix)
	return ok && isPositiveInt(id)
}

func isPositiveInt(s string) bool {
	if s == "" || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
