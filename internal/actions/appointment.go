package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Attendee is either an external email address or an internal user id.
type Attendee struct {
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
}

// CreateAppointmentParams are the parameters of appointment.create.
type CreateAppointmentParams struct {
	CalendarID   string     `json:"calendarId"`
	Title        string     `json:"title,omitempty"`
	Location     string     `json:"location,omitempty"`
	Visibility   string     `json:"visibility,omitempty"`
	Availability string     `json:"availability,omitempty"`
	TimeZone     string     `json:"timeZone,omitempty"`
	IsAllDay     bool       `json:"isAllDay,omitempty"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate"`
	Attendees    []Attendee `json:"attendees,omitempty"`
}

// UpdateAppointmentParams are the parameters of appointment.update. Empty
// strings leave the corresponding value unchanged.
type UpdateAppointmentParams struct {
	ID           string     `json:"id"`
	Type         string     `json:"type,omitempty"`
	Title        string     `json:"title,omitempty"`
	Location     string     `json:"location,omitempty"`
	Visibility   string     `json:"visibility,omitempty"`
	Availability string     `json:"availability,omitempty"`
	TimeZone     string     `json:"timeZone,omitempty"`
	IsAllDay     bool       `json:"isAllDay,omitempty"`
	StartDate    string     `json:"startDate,omitempty"`
	EndDate      string     `json:"endDate,omitempty"`
	Attendees    []Attendee `json:"attendees,omitempty"`
}

// DeleteAppointmentParams are the parameters of appointment.delete.
type DeleteAppointmentParams struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

const (
	VisibilityPublic  = "Public"
	AvailabilityBusy  = "Busy"
	AttendeeRequired  = "Required"
	InstanceSingle    = "Single"
	InstanceAll       = "All"
	InstanceAndFuture = "ThisAndFuture"
)

var localDatePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:T(\d{2}:\d{2}:\d{2}))?`)

// LocalDate is the wire shape of one end of a time span.
type LocalDate struct {
	Date     string  `json:"date"`
	Time     string  `json:"time,omitempty"`
	TimeZone *string `json:"timeZone"`
}

type timeSpan struct {
	Start    LocalDate `json:"start"`
	End      LocalDate `json:"end"`
	IsAllDay bool      `json:"isAllDay"`
}

type participantEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type participant struct {
	Email  *participantEmail `json:"email,omitempty"`
	UserID string            `json:"userId,omitempty"`
}

type attendeeInput struct {
	Participant participant `json:"participant"`
	Role        string      `json:"role"`
}

type createCalendarEventInput struct {
	CalendarID   string          `json:"calendarId"`
	Title        string          `json:"title,omitempty"`
	Location     string          `json:"location,omitempty"`
	Visibility   string          `json:"visibility"`
	Availability string          `json:"availability"`
	TimeSpan     timeSpan        `json:"timeSpan"`
	Attendees    []attendeeInput `json:"attendees,omitempty"`
}

type updateCalendarEventInput struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Title        string          `json:"title,omitempty"`
	Location     string          `json:"location,omitempty"`
	Visibility   string          `json:"visibility,omitempty"`
	Availability string          `json:"availability,omitempty"`
	TimeSpan     *timeSpan       `json:"timeSpan,omitempty"`
	Attendees    []attendeeInput `json:"attendees,omitempty"`
}

const calendarEventFields = `
    calendarEventInstance {
      id
      status
      type
      visibility
      availability
    }`

const createCalendarEventMutation = `
mutation($input: CreateCalendarEventInput!) {
  createCalendarEvent(input: $input) {` + calendarEventFields + `
  }
}`

const updateCalendarEventMutation = `
mutation($input: UpdateCalendarEventInput!) {
  updateCalendarEvent(input: $input) {` + calendarEventFields + `
  }
}`

const deleteCalendarEventMutation = `
mutation($input: DeleteCalendarEventInput!) {
  deleteCalendarEvent(input: $input) {
    success
  }
}`

// ParseLocalDate parses "YYYY-MM-DD", "YYYY-MM-DD hh:mm:ss" or
// "YYYY-MM-DDThh:mm:ss". Anything after the seconds is ignored. The time
// part is required unless allDay, and dropped when allDay.
func ParseLocalDate(s string, allDay bool, timeZone string) (LocalDate, error) {
	normalized := strings.Replace(strings.TrimSpace(s), " ", "T", 1)
	m := localDatePattern.FindStringSubmatch(normalized)
	if m == nil || (!allDay && m[2] == "") {
		return LocalDate{}, fmt.Errorf("invalid date format: %s", s)
	}

	d := LocalDate{Date: m[1]}
	if !allDay {
		d.Time = m[2]
	}
	if timeZone != "" {
		d.TimeZone = &timeZone
	}
	return d, nil
}

func buildTimeSpan(start, end string, allDay bool, timeZone string) (timeSpan, error) {
	s, err := ParseLocalDate(start, allDay, timeZone)
	if err != nil {
		return timeSpan{}, err
	}
	e, err := ParseLocalDate(end, allDay, timeZone)
	if err != nil {
		return timeSpan{}, err
	}
	return timeSpan{Start: s, End: e, IsAllDay: allDay}, nil
}

func buildAttendees(in []Attendee) ([]attendeeInput, error) {
	out := make([]attendeeInput, 0, len(in))
	for i, a := range in {
		role := a.Role
		if role == "" {
			role = AttendeeRequired
		}
		switch {
		case a.Email != "":
			out = append(out, attendeeInput{
				Participant: participant{Email: &participantEmail{Email: a.Email, Name: a.Name}},
				Role:        role,
			})
		case a.UserID != "":
			out = append(out, attendeeInput{Participant: participant{UserID: a.UserID}, Role: role})
		default:
			return nil, fmt.Errorf("attendee %d must have either email or userId set", i)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func instanceType(t string) (string, error) {
	switch t {
	case "":
		return InstanceSingle, nil
	case InstanceSingle, InstanceAll, InstanceAndFuture:
		return t, nil
	default:
		return "", fmt.Errorf("type must be one of %s, %s, %s (got %q)", InstanceSingle, InstanceAll, InstanceAndFuture, t)
	}
}

func (r *Router) createAppointment(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p CreateAppointmentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.CalendarID == "" {
		return nil, fmt.Errorf("calendarId is required")
	}

	span, err := buildTimeSpan(p.StartDate, p.EndDate, p.IsAllDay, p.TimeZone)
	if err != nil {
		return nil, err
	}
	attendees, err := buildAttendees(p.Attendees)
	if err != nil {
		return nil, err
	}

	input := createCalendarEventInput{
		CalendarID:   p.CalendarID,
		Title:        p.Title,
		Location:     p.Location,
		Visibility:   orDefault(p.Visibility, VisibilityPublic),
		Availability: orDefault(p.Availability, AvailabilityBusy),
		TimeSpan:     span,
		Attendees:    attendees,
	}

	resp, err := r.do(ctx, createCalendarEventMutation, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}

	event, err := resp.RawAt("data.createCalendarEvent.calendarEventInstance")
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{event}, nil
}

func (r *Router) updateAppointment(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p UpdateAppointmentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	typ, err := instanceType(p.Type)
	if err != nil {
		return nil, err
	}

	var span *timeSpan
	switch {
	case p.StartDate != "" && p.EndDate == "":
		return nil, fmt.Errorf("endDate must be set if startDate is set")
	case p.EndDate != "" && p.StartDate == "":
		return nil, fmt.Errorf("startDate must be set if endDate is set")
	case p.StartDate != "":
		s, err := buildTimeSpan(p.StartDate, p.EndDate, p.IsAllDay, p.TimeZone)
		if err != nil {
			return nil, err
		}
		span = &s
	}

	attendees, err := buildAttendees(p.Attendees)
	if err != nil {
		return nil, err
	}

	input := updateCalendarEventInput{
		ID:           p.ID,
		Type:         typ,
		Title:        p.Title,
		Location:     p.Location,
		Visibility:   p.Visibility,
		Availability: p.Availability,
		TimeSpan:     span,
		Attendees:    attendees,
	}

	resp, err := r.do(ctx, updateCalendarEventMutation, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}

	event, err := resp.RawAt("data.updateCalendarEvent.calendarEventInstance")
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{event}, nil
}

func (r *Router) deleteAppointment(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p DeleteAppointmentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	typ, err := instanceType(p.Type)
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, deleteCalendarEventMutation, map[string]any{
		"input": map[string]any{"id": p.ID, "type": typ},
	})
	if err != nil {
		return nil, err
	}

	result, err := resp.RawAt("data.deleteCalendarEvent")
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{result}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
