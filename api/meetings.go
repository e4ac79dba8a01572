// ABOUTME: Meeting, followup and interaction endpoints
// ABOUTME: Lifecycle calls for the per-investor outreach records
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/confideleapcrm/irdesk/models"
)

func byInvestor(investorID models.ID) url.Values {
	q := url.Values{}
	q.Set("investor_id", investorID.String())
	return q
}

func (c *Client) ListMeetings(ctx context.Context, investorID models.ID) ([]models.Meeting, error) {
	return getList[models.Meeting](ctx, c, "/api/meetings", byInvestor(investorID), "meetings")
}

func (c *Client) CreateMeeting(ctx context.Context, in models.MeetingInput) (*models.Meeting, error) {
	return sendItem[models.Meeting](ctx, c, http.MethodPost, "/api/meetings", in, "meeting")
}

func (c *Client) UpdateMeeting(ctx context.Context, id models.ID, in models.MeetingInput) (*models.Meeting, error) {
	return sendItem[models.Meeting](ctx, c, http.MethodPut, "/api/meetings/"+url.PathEscape(id.String()), in, "meeting")
}

// GenerateMeet asks the server to create a video-meeting link. A
// GoogleCreateStatus of NO_REFRESH_TOKEN means the acting user has not
// connected Google.
func (c *Client) GenerateMeet(ctx context.Context, meetingID models.ID) (*models.MeetLinkResult, error) {
	var out models.MeetLinkResult
	path := "/api/meetings/" + url.PathEscape(meetingID.String()) + "/generate_meet"
	if err := c.do(ctx, http.MethodPost, path, nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFollowups(ctx context.Context, investorID models.ID) ([]models.Followup, error) {
	return getList[models.Followup](ctx, c, "/api/followups", byInvestor(investorID), "followups")
}

func (c *Client) CreateFollowup(ctx context.Context, in models.FollowupInput) (*models.Followup, error) {
	return sendItem[models.Followup](ctx, c, http.MethodPost, "/api/followups", in, "followup")
}

func (c *Client) UpdateFollowup(ctx context.Context, id models.ID, in models.FollowupInput) (*models.Followup, error) {
	return sendItem[models.Followup](ctx, c, http.MethodPut, "/api/followups/"+url.PathEscape(id.String()), in, "followup")
}

func (c *Client) ListInteractions(ctx context.Context, investorID models.ID) ([]models.Interaction, error) {
	return getList[models.Interaction](ctx, c, "/api/interactions", byInvestor(investorID), "interactions")
}

func (c *Client) CreateInteraction(ctx context.Context, in models.InteractionInput) (*models.Interaction, error) {
	return sendItem[models.Interaction](ctx, c, http.MethodPost, "/api/interactions", in, "interaction")
}
