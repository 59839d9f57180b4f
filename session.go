/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const anonymousName = "Anonymous"

// Identity is the display projection of the stored token. It is recomputed
// on demand and never persisted.
type Identity struct {
	SubjectID   string `json:"id"`
	DisplayName string `json:"username"`
}

func (i Identity) String() string {
	return i.DisplayName
}

// SessionResolver derives the current Identity from a CredentialStore.
// Signatures are not verified here; the api does that on every request.
type SessionResolver struct {
	store  CredentialStore
	parser *jwt.Parser
}

func newSessionResolver(store CredentialStore) *SessionResolver {
	return &SessionResolver{
		store:  store,
		parser: jwt.NewParser(),
	}
}

// ResolveIdentity returns false for a missing or undecodable token.
func (r *SessionResolver) ResolveIdentity() (Identity, bool) {
	token, ok := r.store.Get()
	if !ok {
		return Identity{}, false
	}

	return decodeIdentity(r.parser, token)
}

func decodeIdentity(parser *jwt.Parser, token string) (Identity, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, false
	}

	id := Identity{
		SubjectID:   claimString(claims["sub"]),
		DisplayName: claimString(claims["username"]),
	}
	if id.DisplayName == "" {
		id.DisplayName = anonymousName
	}

	return id, true
}

// claimString renders string and numeric claims alike; the api issues
// integer subjects.
func claimString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}
