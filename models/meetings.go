package models

import "time"

// EffectiveTime is the meeting's scheduled time, falling back to its creation time.
func (m *Meeting) EffectiveTime() time.Time {
	if m.MeetingDatetime != nil && !m.MeetingDatetime.IsZero() {
		return m.MeetingDatetime.Time
	}
	return m.CreatedAt.Value()
}

// LatestMeeting picks the most recent meeting for companyID. An empty
// companyID matches every meeting. On identical timestamps the candidate
// seen last wins.
func LatestMeeting(meetings []Meeting, companyID ID) *Meeting {
	var latest *Meeting
	var latestAt time.Time
	for i := range meetings {
		m := &meetings[i]
		if !companyID.IsZero() && m.CompanyID != companyID {
			continue
		}
		at := m.EffectiveTime()
		if latest == nil || !at.Before(latestAt) {
			latest = m
			latestAt = at
		}
	}
	return latest
}
