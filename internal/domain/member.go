package domain

import "time"

// MemberState is the live per-member state of a session.
// No transport or lifecycle logic here.
type MemberState struct {
	ParticipantID ParticipantID `json:"id"`
	Username      string        `json:"username"`
	Position      Position      `json:"position"`
	Cursor        CursorConfig  `json:"cursor"`
	IsActive      bool          `json:"isActive"`
	LastActivity  UnixMillis    `json:"lastActivity"`
}

// NewMemberState returns a fresh member parked at the origin.
func NewMemberState(p Participant, cursor CursorConfig, now time.Time) *MemberState {
	return &MemberState{
		ParticipantID: p.ID,
		Username:      p.Username,
		Cursor:        cursor,
		IsActive:      true,
		LastActivity:  Millis(now),
	}
}

func (m *MemberState) Touch(now time.Time) {
	m.IsActive = true
	m.LastActivity = Millis(now)
}

// IdleSince reports whether the member has been quiet for at least maxIdle.
func (m *MemberState) IdleSince(now time.Time, maxIdle time.Duration) bool {
	return now.Sub(m.LastActivity.Time()) >= maxIdle
}
