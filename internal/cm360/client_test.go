package cm360

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, h http.HandlerFunc) (*Session, *observability.MockMetricsRegistry) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	metrics := observability.NewMockMetricsRegistry()
	client := NewClient(server.URL, server.Client(), zap.NewNop(), metrics)
	return client.Session("tok", "42", "7"), metrics
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestListPlacements_FollowsPageTokens(t *testing.T) {
	var calls int
	s, metrics := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/userprofiles/42/placements", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "9", r.URL.Query().Get("campaignIds"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = io.WriteString(w, `{"placements":[{"id":"101","name":"a","campaignId":"9","siteId":"5","size":{"width":728,"height":90},"compatibility":"DISPLAY","pricingSchedule":{"startDate":"2026-01-01","endDate":"2026-02-01"}}],"nextPageToken":"p2"}`)
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("pageToken"))
		_, _ = io.WriteString(w, `{"placements":[{"id":"102","name":"b","campaignId":"9","siteId":"5","size":{"width":640,"height":360},"compatibility":"IN_STREAM_VIDEO","archived":true}]}`)
	})

	got, err := s.ListPlacements(context.Background(), "9")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, "101", got[0].ID)
	assert.Equal(t, int64(101), got[0].CMID)
	assert.Equal(t, "728x90", got[0].Size)
	assert.Equal(t, models.PlacementDisplay, got[0].Type)
	assert.Equal(t, "2026-01-01", got[0].StartDate)
	assert.Contains(t, got[0].ExternalURL, "/accounts/7/campaigns/9/placements/101")

	assert.Equal(t, models.PlacementVideo, got[1].Type)
	assert.Equal(t, models.PlacementStatusArchived, got[1].Status)
	assert.Equal(t, 2, metrics.Count("gateway", "list_placements", "success"))
}

func TestInsertPlacement_SendsCreateOnlyFields(t *testing.T) {
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body := decodeBody(t, r)
		assert.Equal(t, map[string]any{"width": float64(300), "height": float64(250)}, body["size"])
		assert.Equal(t, PaymentSourceAgency, body["paymentSource"])
		assert.Equal(t, "9", body["campaignId"])
		assert.Equal(t, "5", body["siteId"])
		schedule := body["pricingSchedule"].(map[string]any)
		assert.Equal(t, PricingTypeCPM, schedule["pricingType"])
		assert.Contains(t, body["tagFormats"], "PLACEMENT_TAG_STANDARD")

		_, _ = io.WriteString(w, `{"id":"555","name":"n","campaignId":"9","siteId":"5","size":{"width":300,"height":250},"compatibility":"DISPLAY"}`)
	})

	created, err := s.InsertPlacement(context.Background(), models.Placement{
		ID: "plc-1", CampaignID: "9", SiteID: "5", Name: "n", Size: "300x250", Type: models.PlacementDisplay,
		StartDate: "2026-01-01", EndDate: "2026-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "555", created.ID)
	assert.Equal(t, int64(555), created.CMID)
}

func TestPatchPlacement_OmitsCreateOnlyFields(t *testing.T) {
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "101", r.URL.Query().Get("id"))
		body := decodeBody(t, r)
		assert.NotContains(t, body, "size")
		assert.NotContains(t, body, "paymentSource")
		schedule := body["pricingSchedule"].(map[string]any)
		assert.NotContains(t, schedule, "pricingType")
		assert.Equal(t, []any{"PLACEMENT_TAG_INSTREAM_VIDEO_PREFETCH", "PLACEMENT_TAG_INSTREAM_VIDEO_PREFETCH_VAST_3", "PLACEMENT_TAG_INSTREAM_VIDEO_PREFETCH_VAST_4"}, body["tagFormats"])
		_, _ = io.WriteString(w, `{"id":"101","name":"renamed","compatibility":"IN_STREAM_VIDEO"}`)
	})

	updated, err := s.PatchPlacement(context.Background(), 101, models.Placement{
		ID: "101", Name: "renamed", Size: "640x360", Type: models.PlacementVideo, EndDate: "2026-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
}

func TestPatchPlacement_SendsArchivedFlag(t *testing.T) {
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "5", r.URL.Query().Get("id"))
		body := decodeBody(t, r)
		assert.Equal(t, true, body["archived"])
		_, _ = io.WriteString(w, `{"id":"5","name":"x","compatibility":"DISPLAY","archived":true}`)
	})

	updated, err := s.PatchPlacement(context.Background(), 5, models.Placement{
		ID: "5", Name: "x", Size: "300x250", Type: models.PlacementDisplay, Status: models.PlacementStatusArchived,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlacementStatusArchived, updated.Status)
}

func TestPatchPlacement_UnarchiveSendsFalse(t *testing.T) {
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, false, body["archived"])
		_, _ = io.WriteString(w, `{"id":"5","name":"x","compatibility":"DISPLAY","archived":false}`)
	})

	_, err := s.PatchPlacement(context.Background(), 5, models.Placement{
		ID: "5", Name: "x", Size: "300x250", Type: models.PlacementDisplay, Status: models.PlacementStatusActive,
	})
	require.NoError(t, err)
}

func TestAPIErrorParsing(t *testing.T) {
	s, metrics := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"Duplicate placement name","errors":[{"reason":"invalid"}]}}`)
	})

	_, err := s.InsertPlacement(context.Background(), models.Placement{CampaignID: "9", SiteID: "5", Size: "1x1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid", apiErr.Reason)
	assert.Equal(t, "Duplicate placement name", ErrorMessage(err))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, 1, metrics.Count("gateway", "insert_placement", "failure"))
}

func TestAPIErrorNonJSONBody(t *testing.T) {
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := s.ListSites(context.Background())
	assert.Equal(t, "Bad Gateway", ErrorMessage(err))
}

func TestInsertPlacement_RejectsLocalIDsBeforeCalling(t *testing.T) {
	s, metrics := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := s.InsertPlacement(context.Background(), models.Placement{CampaignID: "cmp-x", SiteID: "5", Size: "1x1"})
	require.Error(t, err)
	_, err = s.InsertPlacement(context.Background(), models.Placement{CampaignID: "9", SiteID: "5", Size: "big"})
	require.Error(t, err)
	assert.Zero(t, metrics.Count("gateway", "insert_placement", "failure"))
}

func TestInsertAd_Shape(t *testing.T) {
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userprofiles/42/ads", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, AdTypeStandard, body["type"])
		rotation := body["creativeRotation"].(map[string]any)
		assignments := rotation["creativeAssignments"].([]any)
		assert.Equal(t, "3", assignments[0].(map[string]any)["creativeId"])
		placements := body["placementAssignments"].([]any)
		assert.Equal(t, "101", placements[0].(map[string]any)["placementId"])
		_, _ = io.WriteString(w, `{"id":"77","name":"ad","campaignId":"9"}`)
	})

	ad, err := s.InsertAd(context.Background(), models.AdRequest{Name: "ad", CampaignID: "9", CreativeID: "3", PlacementID: "101"})
	require.NoError(t, err)
	assert.Equal(t, "77", ad.ID)
	assert.Equal(t, "3", ad.CreativeID)
}

func TestCampaignStatusMapping(t *testing.T) {
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("advertiserIds"))
		_, _ = io.WriteString(w, `{"campaigns":[
			{"id":"1","advertiserId":"1","name":"live","endDate":"2999-01-01","archived":false},
			{"id":"2","advertiserId":"1","name":"old","endDate":"2000-01-01"},
			{"id":"3","advertiserId":"1","name":"off","endDate":"2999-01-01","archived":true}]}`)
	})
	got, err := s.ListCampaigns(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.CampaignActive, got[0].Status)
	assert.Equal(t, models.CampaignCompleted, got[1].Status)
	assert.Equal(t, models.CampaignPaused, got[2].Status)
}

func TestListUserProfiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userprofiles", r.URL.Path)
		_, _ = io.WriteString(w, `{"items":[{"profileId":"42","accountId":"7","userName":"ops"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil, nil)
	profiles, err := client.ListUserProfiles(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "42", profiles[0].ProfileID)
	assert.Equal(t, "7", profiles[0].AccountID)
}

func TestParseSize(t *testing.T) {
	size, err := ParseSize("728X90")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 728, Height: 90}, size)

	for _, bad := range []string{"", "728", "x90", "0x90", "axb"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}
