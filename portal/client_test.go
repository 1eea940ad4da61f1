package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listURL      = `=~^https://portal\.test/Services/MeetingsService\.svc/meetings\?`
	dataURL      = `=~^https://portal\.test/Services/MeetingsService\.svc/meetings/1408/meetingData`
	documentsURL = `=~^https://portal\.test/Services/MeetingsService\.svc/meetings/1408/meetingDocuments`
)

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestClient() *Client {
	config := model.DefaultIngestConfig()
	config.PortalBaseURL = "https://portal.test/"
	config.PortalRatePerSec = 0
	config.PortalTimeout = 5 * time.Second
	return NewClient(config, nil)
}

func registerMeeting(t *testing.T) {
	t.Helper()

	documents, err := json.Marshal([]MeetingDocument{
		{DocumentType: 2, HTML: ""},
		{DocumentType: 1, HTML: agendaFixture},
	})
	require.NoError(t, err)

	httpmock.RegisterResponder("GET", dataURL, httpmock.NewStringResponder(http.StatusOK,
		`{"Name": "City Council - February 18, 2026", "Location": "3600 86th St", "Time": "6:00 PM", "TypeId": 3, "MeetingTypeName": "City Council", "MeetingExternalLinkUrl": "https://video.test/1408"}`))
	httpmock.RegisterResponder("GET", documentsURL, httpmock.NewStringResponder(http.StatusOK, string(documents)))
	httpmock.RegisterResponder("GET", `=~^https://portal\.test/document/2271`, httpmock.NewBytesResponder(http.StatusOK, pdfFixture(pdfFixtureLine)))
	httpmock.RegisterResponder("GET", `=~^https://portal\.test/document/2272`, httpmock.NewStringResponder(http.StatusOK, minutesFixture))
	httpmock.RegisterResponder("GET", `=~^https://portal\.test/document/2273`, httpmock.NewStringResponder(http.StatusNotFound, "not found"))
}

func TestListMeetingIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("List with duplicates", func(t *testing.T) {
		setupHTTPMock(t)
		httpmock.RegisterResponder("GET", listURL, httpmock.NewStringResponder(http.StatusOK,
			`[{"Id": 1408}, {"Id": 1409}, {"Id": 1408}, {"Id": 0}]`))

		client := newTestClient()
		ids, err := client.ListMeetingIDs(ctx, "2026-01-01", "2026-01-31")
		require.NoError(t, err, "Expected ListMeetingIDs to not return an error")
		assert.Equal(t, []int64{1408, 1409}, ids)

		_, err = client.ListMeetingIDs(ctx, "2026-01-01", "2026-01-31")
		require.NoError(t, err)
		assert.Equal(t, 1, httpmock.GetTotalCallCount(), "Expected the second call to be served from cache")
	})

	t.Run("Single object", func(t *testing.T) {
		setupHTTPMock(t)
		httpmock.RegisterResponder("GET", listURL, httpmock.NewStringResponder(http.StatusOK, `{"Id": 1410, "Name": "Planning"}`))

		ids, err := newTestClient().ListMeetingIDs(ctx, "2026-02-01", "2026-02-28")
		require.NoError(t, err)
		assert.Equal(t, []int64{1410}, ids)
	})

	t.Run("Server error", func(t *testing.T) {
		setupHTTPMock(t)
		httpmock.RegisterResponder("GET", listURL, httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway"))

		_, err := newTestClient().ListMeetingIDs(ctx, "2026-02-01", "2026-02-28")
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr), "Expected a StatusError")
		assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	})
}

func TestFetchMeeting(t *testing.T) {
	ctx := context.Background()

	t.Run("Full payload", func(t *testing.T) {
		setupHTTPMock(t)
		registerMeeting(t)

		payload, err := newTestClient().FetchMeeting(ctx, 1408)
		require.NoError(t, err, "Expected FetchMeeting to not return an error")

		meeting := payload.Meeting
		assert.Equal(t, int64(1408), meeting.MeetingID)
		assert.Equal(t, "City Council - February 18, 2026", meeting.Name)
		assert.Equal(t, "3600 86th St", meeting.Location)
		assert.Equal(t, "6:00 PM", meeting.MeetingTime)
		assert.Equal(t, "https://video.test/1408", meeting.VideoURL)
		assert.Equal(t, "City Council", meeting.TypeName, "Expected the type name under its alternate key")
		require.NotNil(t, meeting.MeetingDate)
		assert.Equal(t, "2026-02-18", meeting.MeetingDate.Format("2006-01-02"))
		assert.Equal(t, float64(3), meeting.Raw["TypeId"])

		require.Len(t, payload.AgendaItems, 4)
		assert.Equal(t, 1, payload.AgendaItems[0].Position)
		assert.Equal(t, "6.1", payload.AgendaItems[0].ItemKey)

		require.Len(t, payload.Documents, 3, "Expected the repeated attachment to be deduplicated")
		statuses := map[int64]model.DocumentTextStatus{}
		for _, document := range payload.Documents {
			statuses[document.DocumentID] = document.TextStatus
		}
		assert.Equal(t, model.TextStatusOK, statuses[2271])
		assert.Equal(t, pdfFixtureLine, payload.Documents[0].Content)
		assert.Equal(t, model.TextStatusOK, statuses[2272])
		assert.Equal(t, model.TextStatusDownloadFailed, statuses[2273])
		assert.Equal(t, "6.2", payload.Documents[1].AgendaItemKey)
		assert.True(t, payload.Documents[1].IsMinutes)

		require.NotNil(t, payload.Minutes)
		assert.Equal(t, int64(2272), *payload.Minutes.DocumentID)
		assert.Equal(t, "The Enclave Apartments, LLC appeared before Mayor Jane Smith.", payload.Minutes.Excerpt)
		require.NotNil(t, payload.Minutes.DetectedDate)
		assert.Equal(t, "2026-02-04", payload.Minutes.DetectedDate.Format("2006-01-02"))
	})

	t.Run("No agenda", func(t *testing.T) {
		setupHTTPMock(t)
		httpmock.RegisterResponder("GET", dataURL, httpmock.NewStringResponder(http.StatusOK, `{"Name": "Work Session"}`))
		httpmock.RegisterResponder("GET", documentsURL, httpmock.NewStringResponder(http.StatusOK, `[]`))

		payload, err := newTestClient().FetchMeeting(ctx, 1408)
		require.NoError(t, err)
		assert.Equal(t, "Work Session", payload.Meeting.Name)
		assert.Nil(t, payload.Meeting.MeetingDate)
		assert.Empty(t, payload.AgendaItems)
		assert.Nil(t, payload.Minutes)
	})

	t.Run("Meeting data error", func(t *testing.T) {
		setupHTTPMock(t)
		httpmock.RegisterResponder("GET", dataURL, httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

		_, err := newTestClient().FetchMeeting(ctx, 1408)
		require.Error(t, err)
		var statusErr *StatusError
		assert.True(t, errors.As(err, &statusErr))
	})
}
