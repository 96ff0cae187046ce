package identity

// Identity is a participant as resolved from the identity token carried by a
// connection. Two identities are the same participant iff their IDs match.
type Identity struct {
	ID   string `json:"uid"`
	Name string `json:"name"`
}

// Key returns the canonical string used to key identity maps.
func (i Identity) Key() string {
	return i.ID
}

// DisplayName returns Name, falling back to a placeholder for anonymous tokens.
func (i Identity) DisplayName() string {
	if i.Name == "" {
		return "Player"
	}
	return i.Name
}
