package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/confideleapcrm/irdesk/config"
)

func TestOAuthConfigRequiresCredentials(t *testing.T) {
	_, err := NewOAuthConfig(config.GoogleConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	conf, err := NewOAuthConfig(config.GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost:8765/oauth/callback"})
	require.NoError(t, err)
	assert.Equal(t, []string{calendar.CalendarEventsScope}, conf.Scopes)
}

func TestTokenFileRoundTrip(t *testing.T) {
	file := TokenFile{Path: filepath.Join(t.TempDir(), "nested", "token.json")}

	_, err := file.Load()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, file.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r"}))
	tok, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
}

func TestCreateEventRequestsMeetConference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("conferenceDataVersion"))
		var ev calendar.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		assert.Equal(t, "hangoutsMeet", ev.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)
		assert.NotEmpty(t, ev.ConferenceData.CreateRequest.RequestId)
		require.Len(t, ev.Attendees, 2)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "evt1",
			"conferenceData": map[string]any{
				"entryPoints": []map[string]any{{"entryPointType": "video", "uri": "https://meet.google.com/abc-defg-hij"}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	linker, err := NewMeetLinker(context.Background(), option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	ev, err := linker.CreateEvent(context.Background(), EventRequest{
		Title:     "Intro",
		Start:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Attendees: SplitAttendees("a@example.com; b@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "evt1", ev.ID)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", ev.MeetLink)
}

func TestCreateEventRequiresStart(t *testing.T) {
	linker, err := NewMeetLinker(context.Background(), option.WithHTTPClient(http.DefaultClient), option.WithEndpoint("http://127.0.0.1:1/"))
	require.NoError(t, err)
	_, err = linker.CreateEvent(context.Background(), EventRequest{})
	assert.Error(t, err)
}

func TestSplitAttendees(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, SplitAttendees(" a@x.com,, b@x.com ;"))
	assert.Empty(t, SplitAttendees(""))
}
