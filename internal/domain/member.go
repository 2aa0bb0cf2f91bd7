package domain

// Member is the presence view of a connection inside a room.
// No transport or lifecycle logic here.
type Member struct {
	ID    ConnID `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(c *Connection) Member {
	return Member{ID: c.ID, Name: c.DisplayName(), Color: c.Color}
}
