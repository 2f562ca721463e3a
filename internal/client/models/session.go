// Package models defines client-side data models used by the Work Group client.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingID is returned when a session record carries no identifier.
var ErrMissingID = errors.New("session has no id")

// Session is the authenticated identity held by the client.
//
// ID is opaque. Email is kept in canonical form once the session manager has
// normalized it. Extra holds every other server-supplied field untouched so it
// survives a save/load round trip (e.g. the "profile" avatar).
type Session struct {
	ID    string
	Name  string
	Email string

	Extra map[string]json.RawMessage
}

const (
	fieldID    = "id"
	fieldName  = "name"
	fieldEmail = "email"
)

// CanonicalEmail trims surrounding whitespace and lower-cases s.
func CanonicalEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize canonicalizes the email in place. When the server omitted the
// email, fallback (canonicalized) is used instead.
func (s *Session) Normalize(fallback string) {
	email := CanonicalEmail(s.Email)
	if email == "" {
		email = CanonicalEmail(fallback)
	}
	s.Email = email
}

// SameIdentity reports whether both sessions describe the same account.
func (s *Session) SameIdentity(o *Session) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.ID == o.ID && CanonicalEmail(s.Email) == CanonicalEmail(o.Email)
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// Validate checks the fields required of an authenticated session.
func (s *Session) Validate() error {
	if s.ID == "" {
		return ErrMissingID
	}
	return nil
}

// MarshalJSON writes the known fields alongside the pass-through ones.
func (s Session) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(s.Extra)+3)
	for k, v := range s.Extra {
		m[k] = v
	}

	for k, v := range map[string]string{fieldID: s.ID, fieldName: s.Name, fieldEmail: s.Email} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		m[k] = b
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts any JSON object. The id may be a string or a number;
// unknown fields land in Extra.
func (s *Session) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		return errors.New("session: expected a JSON object")
	}

	id, err := decodeID(m[fieldID])
	if err != nil {
		return err
	}
	name, err := decodeString(fieldName, m[fieldName])
	if err != nil {
		return err
	}
	email, err := decodeString(fieldEmail, m[fieldEmail])
	if err != nil {
		return err
	}

	delete(m, fieldID)
	delete(m, fieldName)
	delete(m, fieldEmail)
	if len(m) == 0 {
		m = nil
	}

	*s = Session{ID: id, Name: name, Email: email, Extra: m}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		return "", fmt.Errorf("session: id must be a string or a number: %w", err)
	}
	return num.String(), nil
}

func decodeString(field string, raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return "", fmt.Errorf("session: %s must be a string: %w", field, err)
	}
	return str, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
