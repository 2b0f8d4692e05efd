// Package identity resolves who the current user is and issues the
// bearer credentials the rest of the platform attaches to requests.
package identity

// Provider yields the current user's stable identifier and optional
// bearer credential. Empty strings mean "absent": a consumer seeing an
// empty UserID must operate in unauthenticated, local-only mode.
// Resolution never fails; absence is not an error.
type Provider interface {
	UserID() string
	Token() string
}

// Static is a fixed identity, used in tests and single-user tooling.
type Static struct {
	ID     string
	Bearer string
}

func (s Static) UserID() string { return s.ID }
func (s Static) Token() string  { return s.Bearer }

// Anonymous is the identity of a signed-out visitor.
var Anonymous Provider = Static{}

// TokenClaims derives the user id from the subject claim of a bearer
// token supplied by Source. A missing or unparsable token resolves to
// the anonymous identity.
type TokenClaims struct {
	Maker  *TokenMaker
	Source func() string
}

func (p TokenClaims) UserID() string {
	tok := p.Source()
	if tok == "" {
		return ""
	}
	claims, err := p.Maker.Parse(tok)
	if err != nil {
		return ""
	}
	if claims.UserID != "" {
		return claims.UserID
	}
	return claims.Subject
}

func (p TokenClaims) Token() string { return p.Source() }

// Chain tries each provider in order and answers with the first
// non-empty user id. This mirrors the storefront's lookup order:
// active session marker, stored user object, then token subject.
type Chain []Provider

func (c Chain) UserID() string {
	for _, p := range c {
		if id := p.UserID(); id != "" {
			return id
		}
	}
	return ""
}

func (c Chain) Token() string {
	for _, p := range c {
		if id := p.UserID(); id != "" {
			return p.Token()
		}
	}
	return ""
}
