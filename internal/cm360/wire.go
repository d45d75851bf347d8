package cm360

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
)

// CM360 enum values the dashboard sends.
const (
	PaymentSourceAgency   = "PLACEMENT_AGENCY_PAID"
	PricingTypeCPM        = "PRICING_TYPE_CPM"
	AdTypeStandard        = "AD_SERVING_STANDARD_AD"
	compatibilityInStream = "IN_STREAM_VIDEO"
	compatibilityInAudio  = "IN_STREAM_AUDIO"
)

var (
	displayTagFormats = []string{
		"PLACEMENT_TAG_STANDARD",
		"PLACEMENT_TAG_IFRAME_JAVASCRIPT",
		"PLACEMENT_TAG_JAVASCRIPT",
		"PLACEMENT_TAG_INTERNAL_REDIRECT",
	}
	videoTagFormats = []string{
		"PLACEMENT_TAG_INSTREAM_VIDEO_PREFETCH",
		"PLACEMENT_TAG_INSTREAM_VIDEO_PREFETCH_VAST_3",
		"PLACEMENT_TAG_INSTREAM_VIDEO_PREFETCH_VAST_4",
	}
	nativeTagFormats = []string{
		"PLACEMENT_TAG_STANDARD",
		"PLACEMENT_TAG_JAVASCRIPT",
	}
)

// TagFormats returns the tag formats requested for a placement type.
func TagFormats(placementType string) []string {
	switch placementType {
	case models.PlacementVideo:
		return append([]string(nil), videoTagFormats...)
	case models.PlacementNative:
		return append([]string(nil), nativeTagFormats...)
	default:
		return append([]string(nil), displayTagFormats...)
	}
}

// Size is the CM360 dimension object.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ParseSize splits "728x90" into its dimensions.
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("size %q is not WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width <= 0 {
		return Size{}, fmt.Errorf("size %q has invalid width", s)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height <= 0 {
		return Size{}, fmt.Errorf("size %q has invalid height", s)
	}
	return Size{Width: width, Height: height}, nil
}

func (s *Size) String() string {
	if s == nil || (s.Width == 0 && s.Height == 0) {
		return ""
	}
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height)
}

type auditInfo struct {
	// Milliseconds since epoch.
	Time int64 `json:"time,string,omitempty"`
}

func (a *auditInfo) at() time.Time {
	if a == nil || a.Time == 0 {
		return time.Time{}
	}
	return time.UnixMilli(a.Time).UTC()
}

type pricingSchedule struct {
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	PricingType string `json:"pricingType,omitempty"`
}

type wirePlacement struct {
	ID               int64            `json:"id,string,omitempty"`
	Name             string           `json:"name,omitempty"`
	CampaignID       int64            `json:"campaignId,string,omitempty"`
	SiteID           int64            `json:"siteId,string,omitempty"`
	AdvertiserID     int64            `json:"advertiserId,string,omitempty"`
	Size             *Size            `json:"size,omitempty"`
	Compatibility    string           `json:"compatibility,omitempty"`
	TagFormats       []string         `json:"tagFormats,omitempty"`
	PaymentSource    string           `json:"paymentSource,omitempty"`
	PricingSchedule  *pricingSchedule `json:"pricingSchedule,omitempty"`
	Archived         *bool            `json:"archived,omitempty"`
	CreateInfo       *auditInfo       `json:"createInfo,omitempty"`
	LastModifiedInfo *auditInfo       `json:"lastModifiedInfo,omitempty"`
}

type wireCampaign struct {
	ID                   int64      `json:"id,string,omitempty"`
	AdvertiserID         int64      `json:"advertiserId,string,omitempty"`
	Name                 string     `json:"name,omitempty"`
	StartDate            string     `json:"startDate,omitempty"`
	EndDate              string     `json:"endDate,omitempty"`
	Archived             *bool      `json:"archived,omitempty"`
	DefaultLandingPageID int64      `json:"defaultLandingPageId,string,omitempty"`
	Comment              string     `json:"comment,omitempty"`
	LastModifiedInfo     *auditInfo `json:"lastModifiedInfo,omitempty"`
}

type wireCreative struct {
	ID           int64  `json:"id,string,omitempty"`
	AdvertiserID int64  `json:"advertiserId,string,omitempty"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	Size         *Size  `json:"size,omitempty"`
	Active       *bool  `json:"active,omitempty"`
	Archived     *bool  `json:"archived,omitempty"`
	// CM360 has no thumbnail field; the first image asset serves as one.
	CreativeAssets []struct {
		AssetIdentifier struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"assetIdentifier"`
	} `json:"creativeAssets,omitempty"`
}

type wireAdvertiser struct {
	ID   int64  `json:"id,string"`
	Name string `json:"name"`
}

type wireSite struct {
	ID      int64  `json:"id,string"`
	Name    string `json:"name"`
	KeyName string `json:"keyName,omitempty"`
}

type wireLandingPage struct {
	ID           int64  `json:"id,string"`
	AdvertiserID int64  `json:"advertiserId,string"`
	Name         string `json:"name"`
	URL          string `json:"url"`
}

type creativeAssignment struct {
	CreativeID int64 `json:"creativeId,string"`
	Active     bool  `json:"active"`
}

type placementAssignment struct {
	PlacementID int64 `json:"placementId,string"`
	Active      bool  `json:"active"`
}

type wireAd struct {
	ID               int64  `json:"id,string,omitempty"`
	Name             string `json:"name"`
	CampaignID       int64  `json:"campaignId,string"`
	Type             string `json:"type"`
	Active           bool   `json:"active"`
	StartTime        string `json:"startTime,omitempty"`
	EndTime          string `json:"endTime,omitempty"`
	CreativeRotation struct {
		CreativeAssignments []creativeAssignment `json:"creativeAssignments"`
	} `json:"creativeRotation"`
	PlacementAssignments []placementAssignment `json:"placementAssignments"`
}

// UserProfile is a CM360 user profile reachable with a token.
type UserProfile struct {
	ProfileID   string `json:"profileId"`
	AccountID   string `json:"accountId"`
	UserName    string `json:"userName"`
	AccountName string `json:"accountName"`
}

// Ad is the created ad as reported back by CM360.
type Ad struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CampaignID  string `json:"campaignId"`
	CreativeID  string `json:"creativeId"`
	PlacementID string `json:"placementId"`
}

func boolPtr(b bool) *bool { return &b }

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// parseID converts a local string id into a CM360 id. Local temporary ids
// and blanks fail.
func parseID(field, id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s %q is not a CM360 id", field, id)
	}
	return n, nil
}

func placementTypeOf(w wirePlacement) string {
	switch w.Compatibility {
	case compatibilityInStream, compatibilityInAudio:
		return models.PlacementVideo
	default:
		return models.PlacementDisplay
	}
}

func (s *Session) placementURL(w wirePlacement) string {
	if s.accountID == "" || w.ID == 0 {
		return ""
	}
	return fmt.Sprintf("https://campaignmanager.google.com/trafficking/#/accounts/%s/campaigns/%d/placements/%d/explorer",
		s.accountID, w.CampaignID, w.ID)
}

func (s *Session) creativeURL(w wireCreative) string {
	if s.accountID == "" || w.ID == 0 {
		return ""
	}
	return fmt.Sprintf("https://campaignmanager.google.com/trafficking/#/accounts/%s/advertisers/%d/creatives/%d/explorer",
		s.accountID, w.AdvertiserID, w.ID)
}

func (s *Session) toPlacement(w wirePlacement) models.Placement {
	p := models.Placement{
		ID:            idString(w.ID),
		CMID:          w.ID,
		CampaignID:    idString(w.CampaignID),
		Name:          w.Name,
		SiteID:        idString(w.SiteID),
		Size:          w.Size.String(),
		Type:          placementTypeOf(w),
		Compatibility: w.Compatibility,
		Status:        models.PlacementStatusActive,
		CreatedAt:     w.CreateInfo.at(),
		UpdatedAt:     w.LastModifiedInfo.at(),
		ExternalURL:   s.placementURL(w),
	}
	if w.Archived != nil && *w.Archived {
		p.Status = models.PlacementStatusArchived
	}
	if w.PricingSchedule != nil {
		p.StartDate = w.PricingSchedule.StartDate
		p.EndDate = w.PricingSchedule.EndDate
	}
	return p
}

// placementCreateBody shapes a full create request.
func placementCreateBody(p models.Placement) (wirePlacement, error) {
	campaignID, err := parseID("campaign id", p.CampaignID)
	if err != nil {
		return wirePlacement{}, err
	}
	siteID, err := parseID("site id", p.SiteID)
	if err != nil {
		return wirePlacement{}, err
	}
	size, err := ParseSize(p.Size)
	if err != nil {
		return wirePlacement{}, err
	}
	return wirePlacement{
		Name:          p.Name,
		CampaignID:    campaignID,
		SiteID:        siteID,
		Size:          &size,
		Compatibility: placementCompatibility(p),
		TagFormats:    TagFormats(p.Type),
		Archived:      boolPtr(p.Status == models.PlacementStatusArchived),
		PaymentSource: PaymentSourceAgency,
		PricingSchedule: &pricingSchedule{
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
			PricingType: PricingTypeCPM,
		},
	}, nil
}

// placementPatchBody shapes an update. Size, payment source and pricing type
// are never sent on update.
func placementPatchBody(p models.Placement) (wirePlacement, error) {
	w := wirePlacement{
		Name:          p.Name,
		Compatibility: placementCompatibility(p),
		TagFormats:    TagFormats(p.Type),
		Archived:      boolPtr(p.Status == models.PlacementStatusArchived),
	}
	if p.SiteID != "" {
		siteID, err := parseID("site id", p.SiteID)
		if err != nil {
			return wirePlacement{}, err
		}
		w.SiteID = siteID
	}
	if p.StartDate != "" || p.EndDate != "" {
		w.PricingSchedule = &pricingSchedule{StartDate: p.StartDate, EndDate: p.EndDate}
	}
	return w, nil
}

func placementCompatibility(p models.Placement) string {
	if p.Compatibility != "" {
		return p.Compatibility
	}
	if p.Type == models.PlacementVideo {
		return models.CompatibilityInStreamVideo
	}
	return models.CompatibilityDisplay
}

func toCampaign(w wireCampaign, now time.Time) models.Campaign {
	c := models.Campaign{
		ID:                   idString(w.ID),
		CMID:                 w.ID,
		AdvertiserID:         idString(w.AdvertiserID),
		Name:                 w.Name,
		StartDate:            w.StartDate,
		EndDate:              w.EndDate,
		Objective:            w.Comment,
		DefaultLandingPageID: idString(w.DefaultLandingPageID),
		UpdatedAt:            w.LastModifiedInfo.at(),
		Status:               models.CampaignActive,
	}
	switch {
	case w.Archived != nil && *w.Archived:
		c.Status = models.CampaignPaused
	case w.EndDate != "" && w.EndDate < now.Format("2006-01-02"):
		c.Status = models.CampaignCompleted
	}
	return c
}

func campaignCreateBody(c models.Campaign) (wireCampaign, error) {
	advertiserID, err := parseID("advertiser id", c.AdvertiserID)
	if err != nil {
		return wireCampaign{}, err
	}
	landingPageID, err := parseID("default landing page id", c.DefaultLandingPageID)
	if err != nil {
		return wireCampaign{}, err
	}
	return wireCampaign{
		AdvertiserID:         advertiserID,
		Name:                 c.Name,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		DefaultLandingPageID: landingPageID,
		Comment:              c.Objective,
		Archived:             boolPtr(c.Status == models.CampaignPaused),
	}, nil
}

func campaignPatchBody(c models.Campaign) wireCampaign {
	return wireCampaign{
		Name:      c.Name,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Comment:   c.Objective,
		Archived:  boolPtr(c.Status == models.CampaignPaused),
	}
}

func (s *Session) toCreative(w wireCreative) models.Creative {
	c := models.Creative{
		ID:           idString(w.ID),
		AdvertiserID: idString(w.AdvertiserID),
		Name:         w.Name,
		Type:         w.Type,
		Size:         w.Size.String(),
		Status:       models.CreativeInactive,
		ExternalURL:  s.creativeURL(w),
	}
	switch {
	case w.Archived != nil && *w.Archived:
		c.Status = models.CreativeArchived
	case w.Active != nil && *w.Active:
		c.Status = models.CreativeActive
	}
	for _, a := range w.CreativeAssets {
		if a.AssetIdentifier.Type == "HTML_IMAGE" || a.AssetIdentifier.Type == "IMAGE" {
			c.ThumbnailURL = a.AssetIdentifier.Name
			break
		}
	}
	return c
}

func creativePatchBody(c models.Creative) wireCreative {
	return wireCreative{
		Name:     c.Name,
		Active:   boolPtr(c.Status == models.CreativeActive),
		Archived: boolPtr(c.Status == models.CreativeArchived),
	}
}

func adBody(a models.AdRequest) (wireAd, error) {
	campaignID, err := parseID("campaign id", a.CampaignID)
	if err != nil {
		return wireAd{}, err
	}
	creativeID, err := parseID("creative id", a.CreativeID)
	if err != nil {
		return wireAd{}, err
	}
	placementID, err := parseID("placement id", a.PlacementID)
	if err != nil {
		return wireAd{}, err
	}
	w := wireAd{
		Name:       a.Name,
		CampaignID: campaignID,
		Type:       AdTypeStandard,
		Active:     true,
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
	}
	w.CreativeRotation.CreativeAssignments = []creativeAssignment{{CreativeID: creativeID, Active: true}}
	w.PlacementAssignments = []placementAssignment{{PlacementID: placementID, Active: true}}
	return w, nil
}
