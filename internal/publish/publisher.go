package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/cm360"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errNoServerID marks a create answer that carried no server id. The draft
// is kept so the item can be published again.
var errNoServerID = errors.New("CM360 returned no id for the created entity")

// Gateway is the part of the CM360 client the publisher drives.
type Gateway interface {
	InsertPlacement(ctx context.Context, p models.Placement) (models.Placement, error)
	PatchPlacement(ctx context.Context, serverID int64, p models.Placement) (models.Placement, error)
	InsertCampaign(ctx context.Context, c models.Campaign) (models.Campaign, error)
	PatchCampaign(ctx context.Context, serverID int64, c models.Campaign) (models.Campaign, error)
	PatchCreative(ctx context.Context, c models.Creative) (models.Creative, error)
	InsertAd(ctx context.Context, a models.AdRequest) (cm360.Ad, error)
}

// Publisher pushes drafts to CM360 one item at a time and reconciles the
// workspace with each answer. A failed item never stops the batch.
type Publisher struct {
	logger      *zap.Logger
	metrics     observability.MetricsRegistry
	concurrency int
	now         func() time.Time
}

// NewPublisher creates a publisher. concurrency <= 1 publishes sequentially.
func NewPublisher(logger *zap.Logger, metrics observability.MetricsRegistry, concurrency int) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Publisher{logger: logger, metrics: metrics, concurrency: concurrency, now: time.Now}
}

// step publishes one id. attempted is false when there was nothing to send.
type step func(ctx context.Context, id string) (item ItemResult, attempted bool)

// run executes step for every id and aggregates the results in input order.
// Siblings are never cancelled: the group carries no shared context.
func (p *Publisher) run(ctx context.Context, entity string, ids []string, fn step) Result {
	items := make([]ItemResult, len(ids))
	attempted := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			items[i], attempted[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Entity: entity, Items: []ItemResult{}}
	for i, it := range items {
		if !attempted[i] {
			res.Skipped = append(res.Skipped, ids[i])
			continue
		}
		res.Items = append(res.Items, it)
		if it.Success {
			res.SuccessCount++
			p.metrics.IncrementPublishItem(entity, "success")
		} else {
			res.FailedCount++
			p.metrics.IncrementPublishItem(entity, "failure")
		}
	}
	p.metrics.IncrementPublishBatch(entity, string(res.Outcome()))
	p.logger.Info("publish batch finished",
		zap.String("entity", entity),
		zap.Int("success", res.SuccessCount),
		zap.Int("failed", res.FailedCount),
		zap.Int("skipped", len(res.Skipped)))
	return res
}

func (p *Publisher) failure(entity, id string, err error) ItemResult {
	p.logger.Warn("publish item failed",
		zap.String("entity", entity),
		zap.String("id", id),
		zap.Error(err))
	return ItemResult{ID: id, Success: false, Error: cm360.ErrorMessage(err)}
}

// reconcileSelection drops published ids from sel. A batch that created
// entities resets the selection since remapped ids invalidate it.
func reconcileSelection(sel *models.Selection, res Result) {
	if sel == nil {
		return
	}
	if len(res.Created()) > 0 {
		sel.Reset()
		return
	}
	var done []string
	for _, it := range res.Items {
		if it.Success {
			done = append(done, it.ID)
		}
	}
	sel.Remove(done...)
}

// PublishPlacements creates local placements and patches remote ones.
func (p *Publisher) PublishPlacements(ctx context.Context, gw Gateway, ws *models.Workspace, ids []string) Result {
	res := p.run(ctx, EntityPlacement, ids, func(ctx context.Context, id string) (ItemResult, bool) {
		if !ws.Placements.HasDraft(id) {
			return ItemResult{}, false
		}
		merged, ok := ws.Placements.MergedView(id)
		if !ok {
			return ItemResult{}, false
		}

		switch st := merged.State().(type) {
		case models.Local:
			created, err := gw.InsertPlacement(ctx, merged)
			if err != nil {
				return p.failure(EntityPlacement, id, err), true
			}
			if created.CMID == 0 {
				return p.failure(EntityPlacement, id, errNoServerID), true
			}
			final := reconcilePlacement(merged, created)
			if err := ws.Placements.CommitCreate(st.TempID, final); err != nil {
				return p.failure(EntityPlacement, id, fmt.Errorf("created as %s but could not update workspace: %w", final.ID, err)), true
			}
			return ItemResult{ID: id, NewID: final.ID, Success: true}, true
		case models.Remote:
			updated, err := gw.PatchPlacement(ctx, st.ServerID, merged)
			if err != nil {
				return p.failure(EntityPlacement, id, err), true
			}
			final := reconcilePlacement(merged, updated)
			final.ID = id
			if err := ws.Placements.Commit(final); err != nil {
				return p.failure(EntityPlacement, id, err), true
			}
			return ItemResult{ID: id, Success: true}, true
		default:
			return p.failure(EntityPlacement, id, fmt.Errorf("unknown placement state %T", st)), true
		}
	})
	reconcileSelection(ws.Selection(models.GridPlacements), res)
	return res
}

// PublishCampaigns creates unpublished campaigns and patches the others.
func (p *Publisher) PublishCampaigns(ctx context.Context, gw Gateway, ws *models.Workspace, ids []string) Result {
	res := p.run(ctx, EntityCampaign, ids, func(ctx context.Context, id string) (ItemResult, bool) {
		if !ws.Campaigns.HasDraft(id) {
			return ItemResult{}, false
		}
		merged, ok := ws.Campaigns.MergedView(id)
		if !ok {
			return ItemResult{}, false
		}

		if !merged.Published() {
			created, err := gw.InsertCampaign(ctx, merged)
			if err != nil {
				return p.failure(EntityCampaign, id, err), true
			}
			if created.CMID == 0 {
				return p.failure(EntityCampaign, id, errNoServerID), true
			}
			final := reconcileCampaign(merged, created)
			if err := ws.Campaigns.CommitCreate(id, final); err != nil {
				return p.failure(EntityCampaign, id, err), true
			}
			return ItemResult{ID: id, NewID: final.ID, Success: true}, true
		}

		updated, err := gw.PatchCampaign(ctx, merged.CMID, merged)
		if err != nil {
			return p.failure(EntityCampaign, id, err), true
		}
		final := reconcileCampaign(merged, updated)
		final.ID = id
		if err := ws.Campaigns.Commit(final); err != nil {
			return p.failure(EntityCampaign, id, err), true
		}
		return ItemResult{ID: id, Success: true}, true
	})
	reconcileSelection(ws.Selection(models.GridCampaigns), res)
	for oldID, newID := range res.Created() {
		retargetPlacements(ws, oldID, newID)
	}
	return res
}

// retargetPlacements points unpublished placements of a just-created
// campaign at its server id.
func retargetPlacements(ws *models.Workspace, oldCampaignID, newCampaignID string) {
	for _, pl := range ws.Placements.All() {
		if pl.CampaignID != oldCampaignID {
			continue
		}
		if _, local := pl.State().(models.Local); !local {
			continue
		}
		_, _ = ws.Placements.UpdateDraft(pl.ID, models.Patch{"campaignId": newCampaignID})
	}
}

// PublishCreatives patches edited creatives. Creatives are never created here.
func (p *Publisher) PublishCreatives(ctx context.Context, gw Gateway, ws *models.Workspace, ids []string) Result {
	res := p.run(ctx, EntityCreative, ids, func(ctx context.Context, id string) (ItemResult, bool) {
		if !ws.Creatives.HasDraft(id) {
			return ItemResult{}, false
		}
		merged, ok := ws.Creatives.MergedView(id)
		if !ok {
			return ItemResult{}, false
		}
		updated, err := gw.PatchCreative(ctx, merged)
		if err != nil {
			return p.failure(EntityCreative, id, err), true
		}
		final := reconcileCreative(merged, updated)
		if err := ws.Creatives.Commit(final); err != nil {
			return p.failure(EntityCreative, id, err), true
		}
		return ItemResult{ID: id, Success: true}, true
	})
	reconcileSelection(ws.Selection(models.GridCreatives), res)
	return res
}

// CreateAds inserts one ad per creative and placement pair. Item ids are
// "creativeID:placementID".
func (p *Publisher) CreateAds(ctx context.Context, gw Gateway, ws *models.Workspace, campaignID string, creativeIDs, placementIDs []string) Result {
	campaign, _ := ws.Campaigns.MergedView(campaignID)
	start, end := adSchedule(campaign, p.now().UTC())

	var reqs []models.AdRequest
	for _, cid := range creativeIDs {
		for _, pid := range placementIDs {
			reqs = append(reqs, models.AdRequest{
				Name:        adName(ws, cid, pid),
				CampaignID:  campaignID,
				CreativeID:  cid,
				PlacementID: pid,
				StartTime:   start,
				EndTime:     end,
			})
		}
	}
	keys := make([]string, len(reqs))
	byKey := make(map[string]models.AdRequest, len(reqs))
	for i, r := range reqs {
		keys[i] = r.Key()
		byKey[r.Key()] = r
	}

	return p.run(ctx, EntityAd, keys, func(ctx context.Context, key string) (ItemResult, bool) {
		req := byKey[key]
		if models.IsLocalPlacementID(req.PlacementID) {
			return p.failure(EntityAd, key, fmt.Errorf("placement %s is not published yet", req.PlacementID)), true
		}
		ad, err := gw.InsertAd(ctx, req)
		if err != nil {
			return p.failure(EntityAd, key, err), true
		}
		return ItemResult{ID: key, NewID: ad.ID, Success: true}, true
	})
}

func adName(ws *models.Workspace, creativeID, placementID string) string {
	creative, cok := ws.Creatives.MergedView(creativeID)
	placement, pok := ws.Placements.MergedView(placementID)
	switch {
	case cok && pok:
		return placement.Name + " | " + creative.Name
	case cok:
		return creative.Name
	case pok:
		return placement.Name
	default:
		return "Ad " + creativeID + " " + placementID
	}
}

// adSchedule runs an ad over its campaign's flight, never starting in the past.
func adSchedule(c models.Campaign, now time.Time) (string, string) {
	const layout = "2006-01-02"
	start := now.Add(time.Minute).Truncate(time.Minute)
	if d, err := time.Parse(layout, c.StartDate); err == nil && d.After(start) {
		start = d
	}
	end := start.AddDate(0, 0, 30)
	if d, err := time.Parse(layout, c.EndDate); err == nil {
		end = d.Add(24*time.Hour - time.Second)
	}
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}
