package domain

import "time"

type Role string

const (
	RoleParticipant Role = "participant"
	RoleDeveloper   Role = "developer"
	RoleResearcher  Role = "researcher"
)

// Participant is a study member. EnrolledAt anchors schedule expansion.
type Participant struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Roles      []Role    `json:"roles"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func (p *Participant) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}
