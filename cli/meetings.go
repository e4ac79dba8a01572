// ABOUTME: Meeting, followup and outcome commands
// ABOUTME: Meet links come from the server or, with --local, the user's own Google Calendar
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/confideleapcrm/irdesk/gcal"
	"github.com/confideleapcrm/irdesk/models"
	"github.com/confideleapcrm/irdesk/outreach"
)

func newMeetingCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Schedule and track investor meetings",
	}

	cmd.AddCommand(
		newMeetingScheduleCmd(app),
		newMeetingDoneCmd(app),
		newMeetingStatusCmd(app),
		newMeetingLinkCmd(app),
	)
	return cmd
}

func newMeetingScheduleCmd(app *App) *cobra.Command {
	var (
		req  outreach.ScheduleRequest
		at   string
		link bool
	)

	cmd := &cobra.Command{
		Use:   "schedule <investor-id>",
		Short: "Schedule a meeting and move the investor to the meeting list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			when, err := parseWhen("at", at)
			if err != nil {
				return err
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			req.InvestorID = models.ID(args[0])
			req.Datetime = when
			req.GenerateLink = link

			res, err := app.Mutator.ScheduleMeeting(ctx, req)
			if res != nil && res.Meeting != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scheduled meeting %s for %s\n", res.Meeting.ID, when.Format("2006-01-02 15:04"))
				if res.MeetLink != "" {
					fmt.Fprintf(out, "Meet link: %s\n", res.MeetLink)
				}
			}
			return err
		},
	}

	cmd.Flags().Var((*idValue)(&req.CompanyID), "company", "company id the meeting is for")
	cmd.Flags().StringVar(&req.CompanyName, "company-name", "", "company name for the row snapshot")
	cmd.Flags().StringVar(&at, "at", "", "meeting start, e.g. 2024-03-01T15:00")
	cmd.Flags().IntVar(&req.DurationMinutes, "duration", 30, "duration in minutes")
	cmd.Flags().StringVar(&req.Timezone, "timezone", "", "IANA time zone of the meeting")
	cmd.Flags().StringVar(&req.Attendees, "attendees", "", "comma separated attendee emails")
	cmd.Flags().StringVar(&req.Title, "title", "", "meeting title")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "meeting notes")
	cmd.Flags().BoolVar(&link, "link", false, "generate a Google Meet link")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

// idValue lets a models.ID be bound as a string flag.
type idValue models.ID

func (v *idValue) String() string     { return string(*v) }
func (v *idValue) Set(s string) error { *v = idValue(s); return nil }
func (v *idValue) Type() string       { return "id" }

func newMeetingDoneCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "done <investor-id>",
		Short: "Mark the latest meeting with an investor completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setMeetingStatus(cmd, app, args[0], companyID, models.MeetingCompleted)
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id the meeting is for")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newMeetingStatusCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "status <investor-id> <status>",
		Short: "Set the status of the latest meeting with an investor",
		Long:  "Statuses: scheduled, completed, cancelled, rescheduled, no_show.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setMeetingStatus(cmd, app, args[0], companyID, args[1])
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company id the meeting is for")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func setMeetingStatus(cmd *cobra.Command, app *App, investorID, companyID, status string) error {
	ctx := cmd.Context()
	if err := app.open(ctx); err != nil {
		return err
	}
	m, err := app.Mutator.SetMeetingStatus(ctx, models.ID(investorID), models.ID(companyID), status)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Meeting %s is now %s\n", m.ID, m.Status)
	return nil
}

func newMeetingLinkCmd(app *App) *cobra.Command {
	var (
		local      bool
		investorID string
	)

	cmd := &cobra.Command{
		Use:   "link <meeting-id>",
		Short: "Generate a Google Meet link for a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.open(ctx); err != nil {
				return err
			}
			meetingID := models.ID(args[0])

			var link string
			var err error
			if local {
				if investorID == "" {
					return errors.New("--investor is required with --local")
				}
				link, err = localMeetLink(ctx, app, models.ID(investorID), meetingID)
			} else {
				link, err = app.Mutator.GenerateMeetLink(ctx, meetingID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meet link: %s\n", link)
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "create the event in your own Google Calendar")
	cmd.Flags().StringVar(&investorID, "investor", "", "investor the meeting belongs to (with --local)")
	return cmd
}

// localMeetLink creates the calendar event with the locally connected
// Google account and stores the link on the meeting.
func localMeetLink(ctx context.Context, app *App, investorID, meetingID models.ID) (string, error) {
	meetings, err := app.Client.ListMeetings(ctx, investorID)
	if err != nil {
		return "", err
	}
	var meeting *models.Meeting
	for i := range meetings {
		if meetings[i].ID == meetingID {
			meeting = &meetings[i]
			break
		}
	}
	if meeting == nil {
		return "", fmt.Errorf("meeting %s not found for investor %s", meetingID, investorID)
	}

	linker, err := newMeetLinker(ctx, app)
	if err != nil {
		return "", err
	}
	title := meeting.Title
	if title == "" && meeting.CompanyName != "" {
		title = "Investor meeting: " + meeting.CompanyName
	}
	event, err := linker.CreateEvent(ctx, gcal.EventRequest{
		Title:    title,
		Start:    meeting.MeetingDatetime.Value(),
		Duration: time.Duration(meeting.DurationMinutes) * time.Minute,
		Notes:    meeting.Notes,
	})
	if err != nil {
		return "", err
	}
	if _, err := app.Client.UpdateMeeting(ctx, meetingID, models.MeetingInput{MeetLink: event.MeetLink}); err != nil {
		return event.MeetLink, fmt.Errorf("created %s but failed to save it on the meeting: %w", event.MeetLink, err)
	}
	app.Logger.Info("meet link created locally", "meeting_id", meetingID, "event_id", event.ID)
	return event.MeetLink, nil
}

func newMeetLinker(ctx context.Context, app *App) (*gcal.MeetLinker, error) {
	conf, err := gcal.NewOAuthConfig(app.Config.Google)
	if err != nil {
		return nil, err
	}
	source, err := gcal.TokenSource(ctx, conf, gcal.TokenFile{Path: gcal.DefaultTokenPath()})
	if err != nil {
		return nil, err
	}
	return gcal.NewMeetLinker(ctx, option.WithTokenSource(source))
}

func newFollowupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followup",
		Short: "Track followups",
	}

	var (
		req  outreach.FollowupRequest
		date string
	)
	add := &cobra.Command{
		Use:   "add <investor-id>",
		Short: "Record a followup and move the investor to the followups list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if date != "" {
				d, err := parseWhen("date", date)
				if err != nil {
					return err
				}
				req.Date = d
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			req.InvestorID = models.ID(args[0])
			res, err := app.Mutator.CreateFollowup(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Followup %s recorded for %s\n", res.Followup.ID, formatWhen(res.Followup.FollowupDate))
			return nil
		},
	}
	add.Flags().Var((*idValue)(&req.CompanyID), "company", "company id the followup is for")
	add.Flags().StringVar(&req.CompanyName, "company-name", "", "company name for the row snapshot")
	add.Flags().StringVar(&date, "date", "", "followup date, e.g. 2024-03-08")
	add.Flags().StringVar(&req.Notes, "notes", "", "followup notes")

	cmd.AddCommand(add)
	return cmd
}

func newOutcomeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcome",
		Short: "Record meeting outcomes",
	}

	var (
		req          outreach.OutcomeRequest
		followupDate string
	)
	record := &cobra.Command{
		Use:   "record <investor-id> <outcome>",
		Short: "Record an outcome and file the investor in the matching list",
		Long:  "Outcomes: interested, not_interested, follow_up.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if followupDate != "" {
				d, err := parseWhen("followup-date", followupDate)
				if err != nil {
					return err
				}
				req.FollowupDate = &d
			}
			if err := app.open(ctx); err != nil {
				return err
			}
			req.InvestorID = models.ID(args[0])
			req.Outcome = args[1]
			res, err := app.Mutator.RecordOutcome(ctx, req)
			if err != nil {
				return err
			}
			lt, _ := outreach.OutcomeList(req.Outcome)
			fmt.Fprintf(cmd.OutOrStdout(), "Outcome %s recorded; investor filed in %s\n", req.Outcome, lt)
			if res.Followup != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Followup %s on %s\n", res.Followup.ID, formatWhen(res.Followup.FollowupDate))
			}
			return nil
		},
	}
	record.Flags().Var((*idValue)(&req.CompanyID), "company", "company id the outcome is for")
	record.Flags().StringVar(&req.CompanyName, "company-name", "", "company name for the row snapshot")
	record.Flags().Var((*idValue)(&req.MeetingID), "meeting", "meeting the outcome belongs to")
	record.Flags().StringVar(&req.Notes, "notes", "", "outcome notes")
	record.Flags().StringVar(&followupDate, "followup-date", "", "followup date for follow_up outcomes")

	cmd.AddCommand(record)
	return cmd
}
