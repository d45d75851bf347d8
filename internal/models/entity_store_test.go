package models

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seededPlacements(t *testing.T) *Collection[Placement] {
	t.Helper()
	c := NewCollection[Placement]()
	c.Load([]Placement{
		{ID: "101", CMID: 101, CampaignID: "9", Name: "site_a_300x250_", SiteID: "1", Size: "300x250", Type: PlacementDisplay},
		{ID: "102", CMID: 102, CampaignID: "9", Name: "site_b_728x90_", SiteID: "2", Size: "728x90", Type: PlacementDisplay},
	})
	return c
}

func TestMergedView_NoDraftReturnsCanonical(t *testing.T) {
	c := seededPlacements(t)
	canonical, _ := c.Get("101")

	view, ok := c.MergedView("101")
	if !ok {
		t.Fatal("expected record")
	}
	if diff := cmp.Diff(canonical, view); diff != "" {
		t.Fatalf("merged view differs from canonical (-want +got):\n%s", diff)
	}
	if view.IsDraft {
		t.Fatal("record without draft must not be flagged")
	}
}

func TestMergedView_DoesNotMutateCanonical(t *testing.T) {
	c := NewCollection[Creative]()
	c.Load([]Creative{{ID: "5", Name: "old", PlacementIDs: []string{"a", "b"}}})
	before, _ := c.Get("5")

	if _, err := c.UpdateDraft("5", Patch{"name": "new", "placementIds": []string{"z"}}); err != nil {
		t.Fatalf("update draft: %v", err)
	}
	view, _ := c.MergedView("5")
	if view.Name != "new" || !view.IsDraft || len(view.PlacementIDs) != 1 || view.PlacementIDs[0] != "z" {
		t.Fatalf("unexpected merged view: %+v", view)
	}

	after, _ := c.Get("5")
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("canonical record mutated (-before +after):\n%s", diff)
	}
}

func TestUpdateDraft_MergesIntoExistingDraft(t *testing.T) {
	c := seededPlacements(t)

	if ok, err := c.UpdateDraft("101", Patch{"name": "first"}); !ok || err != nil {
		t.Fatalf("first update: ok=%v err=%v", ok, err)
	}
	if ok, err := c.UpdateDraft("101", Patch{"endDate": "2026-12-31"}); !ok || err != nil {
		t.Fatalf("second update: ok=%v err=%v", ok, err)
	}
	if ok, err := c.UpdateDraft("101", Patch{"name": "second"}); !ok || err != nil {
		t.Fatalf("third update: ok=%v err=%v", ok, err)
	}

	draft, ok := c.Draft("101")
	if !ok {
		t.Fatal("expected draft")
	}
	want := Patch{"name": "second", "endDate": "2026-12-31"}
	if diff := cmp.Diff(want, draft); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}
	view, _ := c.MergedView("101")
	if view.Name != "second" || view.EndDate != "2026-12-31" || view.SiteID != "1" {
		t.Fatalf("unexpected merged view: %+v", view)
	}
}

func TestUpdateDraft_UnknownIDIsSilentNoop(t *testing.T) {
	c := seededPlacements(t)
	ok, err := c.UpdateDraft("missing", Patch{"name": "x"})
	if ok || err != nil {
		t.Fatalf("expected silent no-op, got ok=%v err=%v", ok, err)
	}
	if len(c.DraftIDs()) != 0 {
		t.Fatal("no draft should have been created")
	}
}

func TestUpdateDraft_RejectsInvalidPatches(t *testing.T) {
	c := seededPlacements(t)
	cases := []Patch{
		{"id": "999"},
		{"cmId": "1"},
		{"bogus": true},
		{"name": 12},
	}
	for _, p := range cases {
		if _, err := c.UpdateDraft("101", p); !errors.Is(err, ErrInvalidPatch) {
			t.Errorf("patch %v: expected ErrInvalidPatch, got %v", p, err)
		}
	}
}

func TestClearDraft(t *testing.T) {
	c := seededPlacements(t)
	_, _ = c.UpdateDraft("102", Patch{"name": "x"})
	c.ClearDraft("102")
	if c.HasDraft("102") {
		t.Fatal("draft should be gone")
	}
	view, _ := c.MergedView("102")
	if view.IsDraft || view.Name != "site_b_728x90_" {
		t.Fatalf("unexpected view after clear: %+v", view)
	}
}

func TestRemap_MovesRecordAndDraft(t *testing.T) {
	c := NewCollection[Placement]()
	local := Placement{ID: "plc-1", Name: "n"}
	if err := c.AddLocal(local); err != nil {
		t.Fatalf("add local: %v", err)
	}
	_, _ = c.UpdateDraft("plc-1", Patch{"name": "renamed"})

	if err := c.Remap("plc-1", "555"); err != nil {
		t.Fatalf("remap: %v", err)
	}
	if c.Has("plc-1") || c.HasDraft("plc-1") {
		t.Fatal("old id still referenced")
	}
	view, ok := c.MergedView("555")
	if !ok || view.ID != "555" || view.Name != "renamed" || !view.IsDraft {
		t.Fatalf("unexpected remapped view: %+v", view)
	}
}

func TestRemap_Errors(t *testing.T) {
	c := seededPlacements(t)
	if err := c.Remap("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.Remap("101", "102"); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestCommitCreate_ReplacesLocalIDInPlace(t *testing.T) {
	c := seededPlacements(t)
	_ = c.AddLocal(Placement{ID: "plc-x", Name: "new"})
	_ = c.AddLocal(Placement{ID: "plc-y", Name: "other"})

	created := Placement{ID: "777", CMID: 777, Name: "new"}
	if err := c.CommitCreate("plc-x", created); err != nil {
		t.Fatalf("commit create: %v", err)
	}

	var ids []string
	for _, p := range c.All() {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"101", "102", "777", "plc-y"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if c.HasDraft("777") || c.HasDraft("plc-x") {
		t.Fatal("draft must be cleared on create commit")
	}
	if !c.HasDraft("plc-y") {
		t.Fatal("unrelated local draft must survive")
	}
}

func TestCommit_ClearsDraft(t *testing.T) {
	c := seededPlacements(t)
	_, _ = c.UpdateDraft("101", Patch{"name": "edited"})
	if err := c.Commit(Placement{ID: "101", CMID: 101, Name: "edited"}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, _ := c.Get("101")
	if got.Name != "edited" || c.HasDraft("101") {
		t.Fatalf("unexpected state after commit: %+v draft=%v", got, c.HasDraft("101"))
	}
	if err := c.Commit(Placement{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_KeepsDraftedRecords(t *testing.T) {
	c := seededPlacements(t)
	_ = c.AddLocal(Placement{ID: "plc-keep", Name: "local"})
	_, _ = c.UpdateDraft("102", Patch{"name": "pending"})

	c.Load([]Placement{{ID: "101", CMID: 101, Name: "refetched"}})

	if !c.Has("plc-keep") || !c.HasDraft("plc-keep") {
		t.Fatal("local drafted row lost on refetch")
	}
	if !c.Has("102") {
		t.Fatal("drafted canonical row lost on refetch")
	}
	view, _ := c.MergedView("102")
	if view.Name != "pending" {
		t.Fatalf("draft lost: %+v", view)
	}
	got, _ := c.Get("101")
	if got.Name != "refetched" {
		t.Fatalf("canonical not replaced: %+v", got)
	}

	c.Load(nil)
	if c.Has("101") {
		t.Fatal("undrafted row should be dropped when fetch returns nothing")
	}
}

func TestAddLocal_DuplicateID(t *testing.T) {
	c := seededPlacements(t)
	if err := c.AddLocal(Placement{ID: "101"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	c := seededPlacements(t)
	if err := c.Delete("101"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if c.Has("101") || c.Len() != 1 {
		t.Fatal("record not deleted")
	}
	if err := c.Delete("101"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCollection_ConcurrentDraftsOnDistinctIDs(t *testing.T) {
	c := NewCollection[Placement]()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewLocalPlacementID()
		if err := c.AddLocal(Placement{ID: ids[i]}); err != nil {
			t.Fatalf("add local: %v", err)
		}
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = c.UpdateDraft(id, Patch{"name": "n-" + id})
			_ = c.CommitCreate(id, Placement{ID: "srv-" + id, CMID: 1})
		}(id)
	}
	wg.Wait()

	if c.Len() != len(ids) {
		t.Fatalf("expected %d records, got %d", len(ids), c.Len())
	}
	for _, id := range ids {
		if c.Has(id) || !c.Has("srv-"+id) {
			t.Fatalf("id %s not remapped", id)
		}
	}
}

func TestPlacementState(t *testing.T) {
	switch s := (Placement{ID: "plc-1"}).State().(type) {
	case Local:
		if s.TempID != "plc-1" {
			t.Fatalf("unexpected temp id %s", s.TempID)
		}
	default:
		t.Fatalf("expected Local, got %T", s)
	}
	switch s := (Placement{ID: "9", CMID: 9}).State().(type) {
	case Remote:
		if s.ServerID != 9 {
			t.Fatalf("unexpected server id %d", s.ServerID)
		}
	default:
		t.Fatalf("expected Remote, got %T", s)
	}
	if !IsLocalPlacementID(NewLocalPlacementID()) {
		t.Fatal("generated id should be recognised as local")
	}
}
