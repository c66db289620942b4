package auth

import "strings"

type TokenDecoder interface {
	Decode(token string) (Claims, error)
}

// Resolver turns a bearer token into an Identity. It does no I/O.
type Resolver struct {
	decoder TokenDecoder
}

func NewResolver(decoder TokenDecoder) *Resolver {
	return &Resolver{decoder: decoder}
}

// Resolve maps every failure, including an empty token, to ErrUnauthenticated.
func (r *Resolver) Resolve(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := r.decoder.Decode(raw)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	return claims.Identity(), nil
}

// ResolveHeader reads an Authorization header value of the form "Bearer <token>".
func (r *Resolver) ResolveHeader(header string) (Identity, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return Identity{}, ErrUnauthenticated
	}

	return r.Resolve(raw)
}
