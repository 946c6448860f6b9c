package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/external/discord"
)

// channelRecorder captures messages posted per channel and can reject
// specific channels with 403.
type channelRecorder struct {
	mu       sync.Mutex
	messages map[string][]string
	rejected map[string]bool
}

func newChannelRecorder() *channelRecorder {
	return &channelRecorder{
		messages: make(map[string][]string),
		rejected: make(map[string]bool),
	}
}

func (c *channelRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// POST /channels/{id}/messages
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		require.Len(t, parts, 3)
		channelID := parts[1]

		c.mu.Lock()
		rejected := c.rejected[channelID]
		c.mu.Unlock()

		if rejected {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(discord.APIErrorBody{Code: 50001, Message: "Missing Access"})
			return
		}

		var params discord.CreateMessageParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))

		c.mu.Lock()
		c.messages[channelID] = append(c.messages[channelID], params.Content)
		c.mu.Unlock()

		_ = json.NewEncoder(w).Encode(discord.Message{ID: "m1", ChannelID: channelID, Content: params.Content})
	}
}

func (c *channelRecorder) sent(channelID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages[channelID]...)
}

func newTestService(t *testing.T, recorder *channelRecorder, channels []string) (*NotificationService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(recorder.handler(t))
	t.Cleanup(server.Close)

	config := discord.DefaultClientConfig("test-token")
	config.BaseURL = server.URL
	config.Timeout = 5 * time.Second
	config.RetryAttempts = 0
	client := discord.NewClient(config)

	return NewNotificationService(client, channels, nil), server
}

func newRun(t *testing.T, track run.Track, player, time string, place int) *run.Record {
	t.Helper()
	r, err := run.NewRecord(run.CategoryTimeAttack, track, player, time, place, "2024-03-15")
	require.NoError(t, err)
	return r
}

func TestFormatNewRunLine(t *testing.T) {
	r := newRun(t, run.TrackCoventryCove, "Alice", "1:15.50", 2)
	assert.Equal(t, "New run! Coventry Cove - Time Attack in 1:15.50 by Alice, 2nd place", FormatNewRunLine(r))
}

func TestAnnounceNewRuns(t *testing.T) {
	recorder := newChannelRecorder()
	service, _ := newTestService(t, recorder, []string{"c1", "c2"})

	runs := []*run.Record{
		newRun(t, run.TrackCoventryCove, "Alice", "1:15.50", 1),
		newRun(t, run.TrackWickedWoods, "Bob", "1:40.00", 3),
	}
	require.NoError(t, service.AnnounceNewRuns(context.Background(), runs))

	want := "```\n" +
		"New run! Coventry Cove - Time Attack in 1:15.50 by Alice, 1st place\n" +
		"New run! Wicked Woods - Time Attack in 1:40.00 by Bob, 3rd place" +
		"\n```"
	assert.Equal(t, []string{want}, recorder.sent("c1"))
	assert.Equal(t, []string{want}, recorder.sent("c2"))
}

func TestAnnounceNewRunsEmptySliceIsNoop(t *testing.T) {
	recorder := newChannelRecorder()
	service, _ := newTestService(t, recorder, []string{"c1"})

	require.NoError(t, service.AnnounceNewRuns(context.Background(), nil))
	assert.Empty(t, recorder.sent("c1"))
}

func TestAnnounceRankings(t *testing.T) {
	recorder := newChannelRecorder()
	service, _ := newTestService(t, recorder, []string{"c1"})

	require.NoError(t, service.AnnounceRankings(context.Background(), "the table"))

	sent := recorder.sent("c1")
	require.Len(t, sent, 2)
	assert.Equal(t, "Point Rankings Update!", sent[0])
	assert.Equal(t, "```\nthe table\n```", sent[1])
}

func TestAnnounceRankingsUnchanged(t *testing.T) {
	recorder := newChannelRecorder()
	service, _ := newTestService(t, recorder, []string{"c1"})

	require.NoError(t, service.AnnounceRankingsUnchanged(context.Background()))
	assert.Equal(t, []string{"But rankings are unchanged"}, recorder.sent("c1"))
}

func TestBroadcastWithoutChannelsIsNoop(t *testing.T) {
	recorder := newChannelRecorder()
	service, _ := newTestService(t, recorder, nil)

	require.NoError(t, service.AnnounceRankings(context.Background(), "the table"))
	assert.Empty(t, recorder.messages)
}

func TestBroadcastContinuesPastFailingChannel(t *testing.T) {
	recorder := newChannelRecorder()
	recorder.rejected["c1"] = true
	service, _ := newTestService(t, recorder, []string{"c1", "c2"})

	err := service.AnnounceRankingsUnchanged(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c1")

	// The failing channel must not block delivery to the remaining ones.
	assert.Equal(t, []string{"But rankings are unchanged"}, recorder.sent("c2"))
}
