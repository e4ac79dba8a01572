// ABOUTME: Normalisation of heterogeneous server field names into canonical models
// ABOUTME: The only place tolerant field lookups happen; everything else reads typed fields
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

var (
	meetingStatusKeys   = []string{"meeting_status", "status", "meetingStatus"}
	meetingDatetimeKeys = []string{"meeting_datetime", "meetingDatetime", "datetime", "scheduled_at"}
	companyNameKeys     = []string{"company_name", "companyName"}
)

// NormalizeSnapshot maps a loosely-shaped snapshot bag into an InvestorSnapshot.
func NormalizeSnapshot(raw map[string]any) InvestorSnapshot {
	s := InvestorSnapshot{
		Name:              firstString(raw, "name", "investor_name", "full_name"),
		Email:             firstString(raw, "email", "investor_email"),
		Phone:             firstString(raw, "phone", "phone_number", "mobile"),
		Firm:              firstString(raw, "firm", "firm_name", "investor_firm"),
		CompanyName:       companyName(raw),
		PortfolioFit:      firstFloat(raw, "portfolio_fit", "portfolioFit", "fit_score"),
		NotInterestedNote: firstString(raw, "notInterestedNote", "not_interested_note"),
	}

	if m := firstMap(raw, "meeting"); m != nil {
		s.Meeting = normalizeMeetingInfo(m)
	} else if firstString(raw, meetingStatusKeys[0], meetingStatusKeys[2]) != "" || firstTime(raw, meetingDatetimeKeys...) != nil {
		// Older rows flatten the meeting fields into the snapshot itself.
		s.Meeting = &MeetingInfo{
			Status:   firstString(raw, meetingStatusKeys[0], meetingStatusKeys[2]),
			Datetime: firstTime(raw, meetingDatetimeKeys...),
			Link:     firstString(raw, "meet_link", "meetLink"),
		}
	}

	if f := firstMap(raw, "followup", "follow_up"); f != nil {
		s.Followup = &FollowupInfo{
			ID:    IDFromAny(f["id"]),
			Date:  firstTime(f, "followup_date", "follow_up_date", "followupDate", "date"),
			Notes: firstString(f, "notes", "comments"),
		}
	}

	if sch := firstMap(raw, "scheduling"); sch != nil {
		s.Scheduling = &SchedulingInfo{
			Datetime:        firstTime(sch, "datetime", "meeting_datetime", "meetingDatetime"),
			DurationMinutes: firstInt(sch, "duration_minutes", "duration", "durationMinutes"),
			Timezone:        firstString(sch, "timezone", "tz"),
			Attendees:       firstString(sch, "attendees"),
		}
	}

	return s
}

func normalizeMeetingInfo(m map[string]any) *MeetingInfo {
	return &MeetingInfo{
		ID:       IDFromAny(m["id"]),
		Status:   firstString(m, meetingStatusKeys...),
		Datetime: firstTime(m, meetingDatetimeKeys...),
		Link:     firstString(m, "meet_link", "meetLink", "link"),
		Notes:    firstString(m, "notes", "comments"),
	}
}

func (s *InvestorSnapshot) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*s = InvestorSnapshot{}
		return nil
	}
	// Some rows store the snapshot as a JSON-encoded string.
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			*s = InvestorSnapshot{}
			return nil
		}
		data = []byte(inner)
	}
	raw, err := decodeEnvelope(data)
	if err != nil {
		return err
	}
	*s = NormalizeSnapshot(raw)
	return nil
}

func (m *Meeting) UnmarshalJSON(data []byte) error {
	type alias Meeting
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	raw, err := decodeEnvelope(data)
	if err != nil {
		return err
	}
	a.Status = firstString(raw, meetingStatusKeys...)
	if t := firstTime(raw, meetingDatetimeKeys...); t != nil {
		a.MeetingDatetime = t
	}
	a.CompanyName = companyName(raw)
	a.MeetLink = firstString(raw, "meet_link", "meetLink", "hangout_link")
	*m = Meeting(a)
	return nil
}

func (f *Followup) UnmarshalJSON(data []byte) error {
	type alias Followup
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	raw, err := decodeEnvelope(data)
	if err != nil {
		return err
	}
	a.FollowupDate = firstTime(raw, "followup_date", "follow_up_date", "followupDate", "scheduled_at", "date")
	a.CompanyName = companyName(raw)
	a.Notes = firstString(raw, "notes", "comments", "note")
	*f = Followup(a)
	return nil
}

func (i *Interaction) UnmarshalJSON(data []byte) error {
	type alias Interaction
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	raw, err := decodeEnvelope(data)
	if err != nil {
		return err
	}
	a.InteractionDate = firstTime(raw, "interaction_date", "interactionDate", "occurred_at", "date")
	a.CompanyName = companyName(raw)
	a.Notes = firstString(raw, "notes", "comments", "note")
	*i = Interaction(a)
	return nil
}

func companyName(raw map[string]any) string {
	if name := firstString(raw, companyNameKeys...); name != "" {
		return name
	}
	if c := firstMap(raw, "company"); c != nil {
		return firstString(c, "name", "company_name")
	}
	return ""
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstFloat(raw map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func firstInt(raw map[string]any, keys ...string) int {
	if f := firstFloat(raw, keys...); f != nil {
		return int(*f)
	}
	return 0
}

func firstTime(raw map[string]any, keys ...string) *Time {
	for _, k := range keys {
		if t := TimeFromAny(raw[k]); t != nil {
			return t
		}
	}
	return nil
}

func firstMap(raw map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if m, ok := raw[k].(map[string]any); ok {
			return m
		}
	}
	return nil
}
