package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/testutil"
)

func TestCreateExternalLink(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewLinkService(db)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, CreateLinkInput{
		Label: "Upstream Docs",
		URL:   "https://example.com/docs",
	})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	if link.Slug != "upstream-docs" {
		t.Errorf("slug = %q, want %q", link.Slug, "upstream-docs")
	}
	if link.Status != model.StatusDraft || link.Location != model.LocationUnsorted {
		t.Errorf("defaults = %q/%q, want draft/unsorted", link.Status, link.Location)
	}
	if link.IsMirror() {
		t.Error("external link should not be a mirror")
	}
	if link.Position != 0 {
		t.Errorf("position = %d, want 0", link.Position)
	}
}

func TestCreateLinkEmptyLabel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewLinkService(db)
	ctx := context.Background()

	_, err := svc.CreateLink(ctx, CreateLinkInput{URL: "https://example.com"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["label"]; !ok {
		t.Errorf("expected label field in %v", verr.Fields)
	}
}

func TestCreateMirrorLinkBorrowsTitle(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Pricing"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	// CreatePage already made a mirror; remove it so CreateLink can.
	mirror, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}
	if err := links.DeleteLink(ctx, mirror.ID); err != nil {
		t.Fatalf("DeleteLink: %v", err)
	}

	link, err := links.CreateLink(ctx, CreateLinkInput{PageID: &page.ID})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if link.Label != "Pricing" {
		t.Errorf("label = %q, want Pricing", link.Label)
	}
}

func TestCreateSecondMirrorForPageRejected(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Pricing"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	// The page save already created its mirror.
	_, err = links.CreateLink(ctx, CreateLinkInput{Label: "Pricing Two", PageID: &page.ID})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["page"]; !ok {
		t.Errorf("expected page field in %v", verr.Fields)
	}
}

func TestUpdateMirrorPropagatesToPage(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Old Title"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	mirror, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}

	if _, err := links.UpdateLink(ctx, mirror.ID, UpdateLinkInput{Label: ptr("Fresh Title")}); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}

	gotPage, err := pages.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if gotPage.Title != "Fresh Title" {
		t.Errorf("page title = %q, want Fresh Title", gotPage.Title)
	}
	if gotPage.Slug != "fresh-title" {
		t.Errorf("page slug = %q, want fresh-title", gotPage.Slug)
	}

	// The round trip rewrites the mirror with the page's derived slug.
	gotLink, err := links.GetLink(ctx, mirror.ID)
	if err != nil {
		t.Fatalf("GetLink: %v", err)
	}
	if gotLink.Label != "Fresh Title" || gotLink.Slug != "fresh-title" {
		t.Errorf("mirror = %q/%q, want Fresh Title/fresh-title", gotLink.Label, gotLink.Slug)
	}
}

func TestMirrorEditWritesLinkAtMostTwice(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Changelog"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	mirror, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}

	// Tally every write to the links table from here on. The edit below
	// must produce the caller's own save plus exactly one sync rewrite
	// carrying the page's re-derived slug, and nothing further.
	stmts := []string{
		`CREATE TABLE link_writes (n INTEGER)`,
		`CREATE TRIGGER tally_link_updates AFTER UPDATE ON links
		 BEGIN INSERT INTO link_writes (n) VALUES (1); END`,
		`CREATE TRIGGER tally_link_inserts AFTER INSERT ON links
		 BEGIN INSERT INTO link_writes (n) VALUES (1); END`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("installing tally: %v", err)
		}
	}

	if _, err := links.UpdateLink(ctx, mirror.ID, UpdateLinkInput{Label: ptr("Release Notes")}); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}

	var writes int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM link_writes`).Scan(&writes); err != nil {
		t.Fatalf("counting writes: %v", err)
	}
	if writes > 2 {
		t.Fatalf("link written %d times during one mirror edit, want at most 2", writes)
	}

	gotLink, err := links.GetLink(ctx, mirror.ID)
	if err != nil {
		t.Fatalf("GetLink: %v", err)
	}
	if gotLink.Slug != "release-notes" {
		t.Errorf("mirror slug = %q, want release-notes", gotLink.Slug)
	}
}

func TestMirrorStatusMergeIsAsymmetric(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{
		Title:        "Announcements",
		Status:       model.StatusPublished,
		LinkLocation: model.LocationNavbar,
	})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	mirror, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}

	// Pages always carry a status, so the page's value survives the round
	// trip and overwrites the edit on its mirror.
	if _, err := links.UpdateLink(ctx, mirror.ID, UpdateLinkInput{
		Status:   ptr(model.StatusDraft),
		Location: ptr(model.LocationFooter),
	}); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}

	gotPage, err := pages.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if gotPage.Status != model.StatusPublished {
		t.Errorf("page status = %q, want published", gotPage.Status)
	}
	if gotPage.LinkLocation != model.LocationNavbar {
		t.Errorf("page location = %q, want navbar", gotPage.LinkLocation)
	}

	gotLink, err := links.GetLink(ctx, mirror.ID)
	if err != nil {
		t.Fatalf("GetLink: %v", err)
	}
	if gotLink.Status != model.StatusPublished || gotLink.Location != model.LocationNavbar {
		t.Errorf("mirror = %q/%q, want published/navbar", gotLink.Status, gotLink.Location)
	}
}

func TestMirrorPositionPropagatesUnconditionally(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Team"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	mirror, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}

	if _, err := links.UpdateLink(ctx, mirror.ID, UpdateLinkInput{Order: ptr(int64(7))}); err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}

	gotPage, err := pages.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if gotPage.Position != 7 {
		t.Errorf("page position = %d, want 7", gotPage.Position)
	}
}

func TestDeleteMirrorKeepsPage(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Durable"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	mirror, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}

	if err := links.DeleteLink(ctx, mirror.ID); err != nil {
		t.Fatalf("DeleteLink: %v", err)
	}
	if _, err := pages.GetPage(ctx, page.ID); err != nil {
		t.Fatalf("page should survive mirror deletion: %v", err)
	}
}

func TestCreateLinkDuplicateLabel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewLinkService(db)
	ctx := context.Background()

	if _, err := svc.CreateLink(ctx, CreateLinkInput{Label: "Blog", URL: "https://a.example"}); err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	_, err := svc.CreateLink(ctx, CreateLinkInput{Label: "Blog", URL: "https://b.example"})
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExternalLinkSlugCollisionGetsSuffix(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewLinkService(db)
	ctx := context.Background()

	first, err := svc.CreateLink(ctx, CreateLinkInput{Label: "Hello World", URL: "https://a.example"})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	second, err := svc.CreateLink(ctx, CreateLinkInput{Label: "Hello, World", URL: "https://b.example"})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if second.Slug == first.Slug {
		t.Fatal("second link got the same slug as the first")
	}
}
