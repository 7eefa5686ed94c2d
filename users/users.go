package users

// Profile is the denormalized snapshot of the authenticated user's identity,
// cached locally so UI surfaces can render without a round trip.
type Profile struct {
	ID     string `json:"id,omitempty"`     // Unique identifier for the user
	Name   string `json:"name,omitempty"`   // Display name
	Email  string `json:"email,omitempty"`  // User's email address
	Avatar string `json:"avatar,omitempty"` // Reference to the user's avatar image
}

// DisplayName returns the user's display name, falling back to the email
// address when no name has been set.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
