package domain

import "time"

// Invite is a single-use registration ticket.
type Invite struct {
	ID        string
	Code      string
	Email     string // empty when the invite is not pinned to an address
	CreatedBy string // empty once the creator is deleted
	UsedBy    string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	Notes     string
}

func (i Invite) IsUsed() bool { return i.UsedBy != "" }

func (i Invite) IsExpired(now time.Time) bool { return now.After(i.ExpiresAt) }

// IsActive reports whether the invite can still be redeemed.
func (i Invite) IsActive(now time.Time) bool { return !i.IsUsed() && !i.IsExpired(now) }

// AllowsEmail reports whether email may register with this invite.
func (i Invite) AllowsEmail(email string) bool {
	return i.Email == "" || NormalizeEmail(i.Email) == NormalizeEmail(email)
}

// InviteFilter selects invites for the admin listing. The zero value lists
// only active invites.
type InviteFilter struct {
	IncludeUsed    bool
	IncludeExpired bool
}

// InviteList is a filtered listing with counts over the returned invites.
type InviteList struct {
	Invites []Invite
	Total   int
	Active  int
	Used    int
	Expired int // expired and never used
}

// NewInviteList tallies invites as of now.
func NewInviteList(invites []Invite, now time.Time) InviteList {
	list := InviteList{Invites: invites, Total: len(invites)}
	for _, inv := range invites {
		switch {
		case inv.IsUsed():
			list.Used++
		case inv.IsExpired(now):
			list.Expired++
		default:
			list.Active++
		}
	}
	return list
}
