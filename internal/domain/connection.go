// Package domain contains entities and their invariants, without transport or runtime logic.
package domain

import "strings"

const (
	MinNameLen = 2
	MaxNameLen = 30

	UnknownName = "Unknown"
)

// ConnID is assigned by the transport and unique for the lifetime of a connection.
type ConnID string

// Connection is one live transport session: the unit of presence and identity.
type Connection struct {
	ID    ConnID
	Name  string
	Color Color
	// ClientKey is the signed cookie token of the browser/client behind the connection.
	ClientKey string
}

// NewConnection avoids ad-hoc struct literals in adapters.
func NewConnection(id ConnID, color Color, clientKey string) *Connection {
	return &Connection{ID: id, Color: color, ClientKey: clientKey}
}

// DisplayName falls back to UnknownName until the connection picked a name.
func (c *Connection) DisplayName() string {
	if c.Name == "" {
		return UnknownName
	}
	return c.Name
}

// NormalizeName trims the name and checks its length.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validate.Var(name, "min=2,max=30"); err != nil {
		return "", Validation(fieldMessages["Name"])
	}
	return name, nil
}
