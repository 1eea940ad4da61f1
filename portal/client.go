package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
	"golang.org/x/time/rate"
)

const (
	meetingsPath  = "/Services/MeetingsService.svc/meetings"
	agendaDocType = 1
	maxBodyBytes  = 20 << 20
)

// StatusError is returned for non-2xx portal responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("portal returned status %d for %s", e.StatusCode, e.URL)
}

// MeetingSummary is one entry of the meeting list.
type MeetingSummary struct {
	ID   int64  `json:"Id"`
	Name string `json:"Name"`
}

// MeetingData is the meetingData payload of one meeting. Fields whose key
// differs between portal versions are read from Raw.
type MeetingData struct {
	Name     string `json:"Name"`
	Location string `json:"Location"`
	Time     string `json:"Time"`
	TypeID   int64  `json:"TypeId"`
	VideoURL string `json:"MeetingExternalLinkUrl"`
	Raw      model.Metadata
}

// TypeName returns the meeting type name under any of its known keys.
func (d *MeetingData) TypeName() string {
	return d.Raw.FirstString("TypeName", "MeetingTypeName", "MeetingType")
}

// MeetingDocument is one meetingDocuments entry. The agenda carries its HTML.
type MeetingDocument struct {
	DocumentType int    `json:"DocumentType"`
	HTML         string `json:"Html"`
}

// Client talks to a CivicWeb portal. Responses are cached and requests paced.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewClient creates a portal client from the ingest configuration.
func NewClient(config model.IngestConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if config.PortalRatePerSec > 0 {
		limit = rate.Limit(config.PortalRatePerSec)
	}

	return &Client{
		baseURL: strings.TrimRight(config.PortalBaseURL, "/"),
		http:    &http.Client{Timeout: config.PortalTimeout},
		limiter: rate.NewLimiter(limit, 1),
		cache:   cache.New(config.PortalCacheTTL, 2*config.PortalCacheTTL),
		logger:  logger,
	}
}

// BaseURL returns the portal root without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListMeetings lists the meetings between two YYYY-MM-DD dates.
func (c *Client) ListMeetings(ctx context.Context, fromDate string, toDate string) ([]MeetingSummary, error) {
	query := url.Values{}
	query.Set("from", fromDate)
	query.Set("to", toDate)

	body, err := c.getCached(ctx, c.baseURL+meetingsPath+"?"+query.Encode())
	if err != nil {
		return nil, err
	}

	// The portal answers with an array, or a bare object for a single meeting.
	var meetings []MeetingSummary
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single MeetingSummary
		err = json.Unmarshal(trimmed, &single)
		meetings = []MeetingSummary{single}
	} else {
		err = json.Unmarshal(trimmed, &meetings)
	}
	if err != nil {
		return nil, helper.NewError("decode meetings", err)
	}

	return meetings, nil
}

// ListMeetingIDs returns the distinct positive meeting ids between two dates in portal order.
func (c *Client) ListMeetingIDs(ctx context.Context, fromDate string, toDate string) ([]int64, error) {
	meetings, err := c.ListMeetings(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	seen := map[int64]bool{}
	ids := []int64{}
	for _, meeting := range meetings {
		if meeting.ID <= 0 || seen[meeting.ID] {
			continue
		}
		seen[meeting.ID] = true
		ids = append(ids, meeting.ID)
	}
	return ids, nil
}

// GetMeetingData fetches the metadata of one meeting.
func (c *Client) GetMeetingData(ctx context.Context, meetingID int64) (*MeetingData, error) {
	body, err := c.getCached(ctx, fmt.Sprintf("%s%s/%d/meetingData", c.baseURL, meetingsPath, meetingID))
	if err != nil {
		return nil, err
	}

	data := &MeetingData{}
	err = json.Unmarshal(body, data)
	if err != nil {
		return nil, helper.NewError("decode meeting data", err)
	}
	err = json.Unmarshal(body, &data.Raw)
	if err != nil {
		return nil, helper.NewError("decode meeting data", err)
	}

	return data, nil
}

// GetMeetingDocuments fetches the document containers of one meeting.
func (c *Client) GetMeetingDocuments(ctx context.Context, meetingID int64) ([]MeetingDocument, error) {
	body, err := c.getCached(ctx, fmt.Sprintf("%s%s/%d/meetingDocuments?$format=json", c.baseURL, meetingsPath, meetingID))
	if err != nil {
		return nil, err
	}

	var documents []MeetingDocument
	err = json.Unmarshal(body, &documents)
	if err != nil {
		return nil, helper.NewError("decode meeting documents", err)
	}

	return documents, nil
}

// FetchMeeting assembles everything known about a meeting: metadata, agenda
// items with their attachments, extracted document text and minutes.
// Document failures are reported as text statuses, not errors.
func (c *Client) FetchMeeting(ctx context.Context, meetingID int64) (*model.MeetingPayload, error) {
	data, err := c.GetMeetingData(ctx, meetingID)
	if err != nil {
		return nil, helper.NewError("get meeting data", err)
	}

	containers, err := c.GetMeetingDocuments(ctx, meetingID)
	if err != nil {
		return nil, helper.NewError("get meeting documents", err)
	}

	payload := &model.MeetingPayload{
		Meeting: model.Meeting{
			MeetingID:   meetingID,
			Name:        data.Name,
			TypeName:    data.TypeName(),
			MeetingDate: DetectDate(data.Name),
			MeetingTime: data.Time,
			Location:    data.Location,
			VideoURL:    data.VideoURL,
			Raw:         data.Raw,
		},
	}

	agendaHTML := ""
	for _, container := range containers {
		if container.DocumentType == agendaDocType && len(container.HTML) > 0 {
			agendaHTML = container.HTML
			break
		}
	}
	if len(agendaHTML) == 0 {
		c.logger.Warn("Meeting has no agenda html", slog.Int64("meeting_id", meetingID))
		return payload, nil
	}

	items, err := ParseAgenda(agendaHTML, c.baseURL)
	if err != nil {
		return nil, helper.NewError("parse agenda", err)
	}

	seen := map[int64]bool{}
	for i, item := range items {
		payload.AgendaItems = append(payload.AgendaItems, model.AgendaItem{
			MeetingID: meetingID,
			ItemKey:   item.ItemKey,
			Section:   item.Section,
			Title:     item.Title,
			Position:  i + 1,
		})

		for _, attachment := range item.Attachments {
			if seen[attachment.DocumentID] {
				continue
			}
			seen[attachment.DocumentID] = true

			document := model.Document{
				MeetingID:     meetingID,
				DocumentID:    attachment.DocumentID,
				Title:         attachment.Title,
				URL:           attachment.URL,
				Handle:        attachment.Handle,
				IsMinutes:     IsMinutesDocument(attachment.Title),
				AgendaItemKey: item.ItemKey,
			}
			document.Content, document.TextStatus = c.ExtractDocumentText(ctx, document.Title, document.URL)
			payload.Documents = append(payload.Documents, document)
		}
	}

	for _, document := range payload.Documents {
		if document.IsMinutes {
			payload.Minutes = MinutesFromDocument(meetingID, document)
			break
		}
	}

	return payload, nil
}

func (c *Client) getCached(ctx context.Context, rawURL string) ([]byte, error) {
	if cached, ok := c.cache.Get(rawURL); ok {
		return cached.([]byte), nil
	}

	body, _, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	c.cache.Set(rawURL, body, cache.DefaultExpiration)
	return body, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, "", helper.NewError("rate limiter wait", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", helper.NewError("create request", err)
	}
	request.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	start := time.Now()
	response, err := c.http.Do(request)
	if err != nil {
		return nil, "", helper.NewError("portal request", err)
	}
	defer response.Body.Close()

	c.logger.Debug("Portal request", slog.String("url", rawURL), slog.Int("status", response.StatusCode), slog.Duration("duration", time.Since(start)))

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, "", &StatusError{URL: rawURL, StatusCode: response.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, "", helper.NewError("read body", err)
	}

	return body, response.Header.Get("Content-Type"), nil
}
