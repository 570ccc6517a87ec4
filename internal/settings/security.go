package settings

import (
	"sort"
	"strings"
)

// CSP source expressions. CSPNonce is replaced by a per-request nonce when the
// header is rendered.
const (
	CSPSelf  = "'self'"
	CSPNonce = "<CSP_NONCE_SENTINEL>"
)

// CSPPolicy maps directives to source lists.
type CSPPolicy map[string][]string

// Header renders the policy as a Content-Security-Policy header value with
// directives in lexical order. The nonce sentinel becomes 'nonce-<nonce>', or
// is dropped when nonce is empty.
func (p CSPPolicy) Header(nonce string) string {
	directives := make([]string, 0, len(p))
	for directive := range p {
		directives = append(directives, directive)
	}
	sort.Strings(directives)

	parts := make([]string, 0, len(directives))
	for _, directive := range directives {
		sources := make([]string, 0, len(p[directive]))
		for _, src := range p[directive] {
			if src == CSPNonce {
				if nonce == "" {
					continue
				}
				src = "'nonce-" + nonce + "'"
			}
			sources = append(sources, src)
		}
		parts = append(parts, strings.TrimSpace(directive+" "+strings.Join(sources, " ")))
	}
	return strings.Join(parts, "; ")
}

// UsesNonce reports whether any directive references the nonce sentinel.
func (p CSPPolicy) UsesNonce() bool {
	for _, sources := range p {
		for _, src := range sources {
			if src == CSPNonce {
				return true
			}
		}
	}
	return false
}

func defaultCSP() CSPPolicy {
	return CSPPolicy{
		"default-src": {CSPSelf},
		"script-src":  {CSPSelf, CSPNonce},
		"style-src":   {CSPSelf, CSPNonce},
	}
}

// PasswordValidator is one entry of AUTH_PASSWORD_VALIDATORS.
type PasswordValidator struct {
	Name string
}

func defaultPasswordValidators() []PasswordValidator {
	names := []string{
		"UserAttributeSimilarityValidator",
		"MinimumLengthValidator",
		"CommonPasswordValidator",
		"NumericPasswordValidator",
	}
	out := make([]PasswordValidator, 0, len(names))
	for _, name := range names {
		out = append(out, PasswordValidator{Name: "auth.password_validation." + name})
	}
	return out
}
