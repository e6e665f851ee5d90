package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func nullInt64Ptr(v int64) *sql.NullInt64 {
	return &sql.NullInt64{Int64: v, Valid: true}
}

func TestCreatePageDefaults(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, CreatePageInput{Title: "About Us"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	if page.Slug != "about-us" {
		t.Errorf("slug = %q, want %q", page.Slug, "about-us")
	}
	if page.Status != model.StatusDraft {
		t.Errorf("status = %q, want draft", page.Status)
	}
	if page.LinkLocation != model.LocationUnsorted {
		t.Errorf("link_location = %q, want unsorted", page.LinkLocation)
	}
	if !page.ShowInPosition {
		t.Error("show_in_position should default to true")
	}
	if page.Position != 0 {
		t.Errorf("position = %d, want 0 for first page", page.Position)
	}
}

func TestCreatePageMirrorsLink(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{
		Title:        "Contact",
		Status:       model.StatusPublished,
		LinkLocation: model.LocationFooter,
	})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	link, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}
	if link.Label != page.Title {
		t.Errorf("link label = %q, want %q", link.Label, page.Title)
	}
	if link.Slug != page.Slug {
		t.Errorf("link slug = %q, want %q", link.Slug, page.Slug)
	}
	if link.Status != page.Status || link.Location != page.LinkLocation {
		t.Errorf("link status/location = %q/%q, want %q/%q",
			link.Status, link.Location, page.Status, page.LinkLocation)
	}
	if link.Position != page.Position {
		t.Errorf("link position = %d, want %d", link.Position, page.Position)
	}
}

func TestCreatePageChildSlug(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	parent, err := svc.CreatePage(ctx, CreatePageInput{Title: "Docs"})
	if err != nil {
		t.Fatalf("CreatePage parent: %v", err)
	}
	child, err := svc.CreatePage(ctx, CreatePageInput{
		Title:    "Getting Started",
		ParentID: &parent.ID,
	})
	if err != nil {
		t.Fatalf("CreatePage child: %v", err)
	}

	if child.Slug != "docs/getting-started" {
		t.Errorf("child slug = %q, want %q", child.Slug, "docs/getting-started")
	}
}

func TestRenameParentDoesNotCascade(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	parent, err := svc.CreatePage(ctx, CreatePageInput{Title: "Docs"})
	if err != nil {
		t.Fatalf("CreatePage parent: %v", err)
	}
	child, err := svc.CreatePage(ctx, CreatePageInput{Title: "Install", ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("CreatePage child: %v", err)
	}

	if _, err := svc.UpdatePage(ctx, parent.ID, UpdatePageInput{Title: ptr("Handbook")}); err != nil {
		t.Fatalf("UpdatePage parent: %v", err)
	}

	// The child keeps its stored slug until it is itself saved again.
	got, err := svc.GetPage(ctx, child.ID)
	if err != nil {
		t.Fatalf("GetPage child: %v", err)
	}
	if got.Slug != "docs/install" {
		t.Errorf("child slug after parent rename = %q, want %q", got.Slug, "docs/install")
	}

	// Re-saving the child picks up the parent's new slug.
	resaved, err := svc.UpdatePage(ctx, child.ID, UpdatePageInput{})
	if err != nil {
		t.Fatalf("UpdatePage child: %v", err)
	}
	if resaved.Slug != "handbook/install" {
		t.Errorf("resaved child slug = %q, want %q", resaved.Slug, "handbook/install")
	}
}

func TestCreatePageDuplicateTitle(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	if _, err := svc.CreatePage(ctx, CreatePageInput{Title: "About"}); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	_, err := svc.CreatePage(ctx, CreatePageInput{Title: "About"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Errorf("expected title field in %v", verr.Fields)
	}
}

func TestCreatePageSlugCollisionGetsSuffix(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	first, err := svc.CreatePage(ctx, CreatePageInput{Title: "Hello World"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	// Distinct title, identical slugification.
	second, err := svc.CreatePage(ctx, CreatePageInput{Title: "Hello, World"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	if first.Slug != "hello-world" {
		t.Errorf("first slug = %q", first.Slug)
	}
	if second.Slug == first.Slug {
		t.Fatal("second page got the same slug as the first")
	}
	if len(second.Slug) <= len(first.Slug) {
		t.Errorf("second slug %q should carry a suffix", second.Slug)
	}
}

func TestCreatePageValidation(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePageInput
		field string
	}{
		{"empty title", CreatePageInput{Title: ""}, "title"},
		{"bad status", CreatePageInput{Title: "X", Status: "archived"}, "status"},
		{"bad location", CreatePageInput{Title: "Y", LinkLocation: "topbar"}, "link_location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePage(ctx, tt.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected field %q in %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestCreatePageMissingParent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	_, err := svc.CreatePage(ctx, CreatePageInput{Title: "Orphan", ParentID: ptr(int64(999))})
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdatePageReparentCycleRejected(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	a, err := svc.CreatePage(ctx, CreatePageInput{Title: "A"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	b, err := svc.CreatePage(ctx, CreatePageInput{Title: "B", ParentID: &a.ID})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	// A under its own child.
	_, err = svc.UpdatePage(ctx, a.ID, UpdatePageInput{
		ParentID: nullInt64Ptr(b.ID),
	})
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// A under itself.
	_, err = svc.UpdatePage(ctx, a.ID, UpdatePageInput{
		ParentID: nullInt64Ptr(a.ID),
	})
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeletePageWithChildren(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	parent, err := svc.CreatePage(ctx, CreatePageInput{Title: "Parent"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	child, err := svc.CreatePage(ctx, CreatePageInput{Title: "Child", ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	err = svc.DeletePage(ctx, parent.ID)
	if !IsReferential(err) {
		t.Fatalf("expected ReferentialError, got %v", err)
	}

	if err := svc.DeletePage(ctx, child.ID); err != nil {
		t.Fatalf("DeletePage child: %v", err)
	}
	if err := svc.DeletePage(ctx, parent.ID); err != nil {
		t.Fatalf("DeletePage parent after child removed: %v", err)
	}
}

func TestDeletePageCascadesLink(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Ephemeral"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	link, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}

	if err := pages.DeletePage(ctx, page.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}

	if _, err := links.GetLink(ctx, link.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mirror link should be gone, got %v", err)
	}
}

func TestDeletePageNotFound(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)

	if err := svc.DeletePage(context.Background(), 12345); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePageRecomputesSlug(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	pages := NewContentService(db)
	links := NewLinkService(db)
	ctx := context.Background()

	page, err := pages.CreatePage(ctx, CreatePageInput{Title: "Old Name"})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}

	updated, err := pages.UpdatePage(ctx, page.ID, UpdatePageInput{Title: ptr("New Name")})
	if err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}
	if updated.Slug != "new-name" {
		t.Errorf("slug = %q, want %q", updated.Slug, "new-name")
	}

	link, err := links.GetLinkByPageID(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetLinkByPageID: %v", err)
	}
	if link.Label != "New Name" || link.Slug != "new-name" {
		t.Errorf("mirror = %q/%q, want New Name/new-name", link.Label, link.Slug)
	}
}

func TestCreatePagePositionIncrements(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewContentService(db)
	ctx := context.Background()

	for i, title := range []string{"One", "Two", "Three"} {
		page, err := svc.CreatePage(ctx, CreatePageInput{Title: title})
		if err != nil {
			t.Fatalf("CreatePage %s: %v", title, err)
		}
		if page.Position != int64(i) {
			t.Errorf("page %s position = %d, want %d", title, page.Position, i)
		}
	}

	explicit, err := svc.CreatePage(ctx, CreatePageInput{Title: "Pinned", Order: ptr(int64(42))})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if explicit.Position != 42 {
		t.Errorf("explicit position = %d, want 42", explicit.Position)
	}
}
