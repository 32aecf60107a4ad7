package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/plateshare/plateshare/internal/db"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

var (
	dana  = model.Identity{Name: "dana smith", Email: "d@x.org"}
	clock = func() time.Time { return time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC) }
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	return New(store.New(db.NewTestDB(t), db.SQLite), WithClock(clock))
}

func soupInput() FoodInput {
	return FoodInput{
		Name:           "Soup",
		ImageURL:       "http://x/y.jpg",
		Quantity:       "5 boxes",
		PickupLocation: "Main St 1",
		ExpireDate:     "2026-10-18",
	}
}

func testPNG() []byte {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	return buf.Bytes()
}

func ptr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f, err := c.Create(ctx, dana, soupInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ID == "" {
		t.Error("expected an id")
	}
	if f.Status != model.FoodAvailable {
		t.Errorf("expected status 'Available', got %q", f.Status)
	}
	if f.Donor.Name != "Dana Smith" {
		t.Errorf("expected donor name 'Dana Smith', got %q", f.Donor.Name)
	}

	got, err := c.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Donor.Email != "d@x.org" || got.Name != "Soup" {
		t.Errorf("unexpected stored food: %+v", got)
	}

	other, _ := c.Create(ctx, dana, soupInput())
	if other.ID == f.ID {
		t.Error("expected distinct ids")
	}
}

func TestCreateValidation(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		donor  model.Identity
		mutate func(*FoodInput)
		field  string
	}{
		{"blank name", dana, func(in *FoodInput) { in.Name = "  " }, "name"},
		{"blank quantity", dana, func(in *FoodInput) { in.Quantity = "" }, "quantity"},
		{"blank location", dana, func(in *FoodInput) { in.PickupLocation = "" }, "pickup_location"},
		{"blank expiry", dana, func(in *FoodInput) { in.ExpireDate = "" }, "expire_date"},
		{"bad expiry", dana, func(in *FoodInput) { in.ExpireDate = "18/10/2026" }, "expire_date"},
		{"past expiry", dana, func(in *FoodInput) { in.ExpireDate = "2026-10-15" }, "expire_date"},
		{"no image", dana, func(in *FoodInput) { in.ImageURL = "" }, "image"},
		{"relative image url", dana, func(in *FoodInput) { in.ImageURL = "y.jpg" }, "image_url"},
		{"bad image bytes", dana, func(in *FoodInput) { in.ImageURL = ""; in.ImageData = []byte("nope") }, "image"},
		{"no donor", model.Identity{}, func(*FoodInput) {}, "donor"},
	}

	for _, tt := range tests {
		in := soupInput()
		tt.mutate(&in)

		_, err := c.Create(ctx, tt.donor, in)
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", tt.name, err)
			continue
		}
		if ve.Field != tt.field {
			t.Errorf("%s: expected field %q, got %q", tt.name, tt.field, ve.Field)
		}
	}

	all, _ := store.Collect(c.List(ctx, Filter{}))
	if len(all) != 0 {
		t.Errorf("expected nothing stored after failed creates, got %d", len(all))
	}
}

func TestCreateExpiresToday(t *testing.T) {
	c := newTestCatalog(t)

	in := soupInput()
	in.ExpireDate = "2026-10-16"
	if _, err := c.Create(context.Background(), dana, in); err != nil {
		t.Errorf("expected expiry today to be accepted, got %v", err)
	}
}

func TestCreateWithImageData(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	in := soupInput()
	in.ImageURL = ""
	in.ImageData = testPNG()
	f, err := c.Create(ctx, dana, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ImageMIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", f.ImageMIME)
	}

	data, mime, err := c.Image(ctx, f.ID)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if mime != "image/jpeg" || len(data) == 0 {
		t.Errorf("expected stored jpeg, got %q (%d bytes)", mime, len(data))
	}
}

func TestUpdate(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f, _ := c.Create(ctx, dana, soupInput())

	got, err := c.Update(ctx, f.ID, "D@X.ORG", FoodPatch{Name: ptr("Tomato Soup"), Notes: ptr("vegan")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Tomato Soup" || got.Notes != "vegan" || got.Quantity != "5 boxes" {
		t.Errorf("unexpected merge result: %+v", got)
	}

	stored, _ := c.Get(ctx, f.ID)
	if stored.Name != "Tomato Soup" {
		t.Errorf("expected stored name 'Tomato Soup', got %q", stored.Name)
	}
}

func TestUpdateNonOwnerForbidden(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f, _ := c.Create(ctx, dana, soupInput())

	_, err := c.Update(ctx, f.ID, "e@x.org", FoodPatch{Name: ptr("Mine now")})
	if !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	stored, _ := c.Get(ctx, f.ID)
	if stored.Name != "Soup" {
		t.Errorf("expected record unchanged, got name %q", stored.Name)
	}
}

func TestUpdateValidationAndNotFound(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f, _ := c.Create(ctx, dana, soupInput())

	if _, err := c.Update(ctx, f.ID, "d@x.org", FoodPatch{Name: ptr(" ")}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got %v", err)
	}
	if _, err := c.Update(ctx, f.ID, "d@x.org", FoodPatch{ImageURL: ptr("")}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for removed image, got %v", err)
	}
	if _, err := c.Update(ctx, "missing", "d@x.org", FoodPatch{}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSwitchesImageSource(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f, _ := c.Create(ctx, dana, soupInput())

	got, err := c.Update(ctx, f.ID, "d@x.org", FoodPatch{ImageData: testPNG()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ImageURL != "" || got.ImageMIME != "image/jpeg" {
		t.Errorf("expected inline image, got url=%q mime=%q", got.ImageURL, got.ImageMIME)
	}
	if _, _, err := c.Image(ctx, f.ID); err != nil {
		t.Errorf("Image: %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f, _ := c.Create(ctx, dana, soupInput())

	got, err := c.SetStatus(ctx, f.ID, model.FoodDonated)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != model.FoodDonated {
		t.Errorf("expected 'Donated', got %q", got.Status)
	}

	// Idempotent.
	before, _ := c.Get(ctx, f.ID)
	if _, err := c.SetStatus(ctx, f.ID, model.FoodDonated); err != nil {
		t.Fatalf("second SetStatus: %v", err)
	}
	after, _ := c.Get(ctx, f.ID)
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("expected repeated SetStatus not to write")
	}

	// Monotonic.
	if _, err := c.SetStatus(ctx, f.ID, model.FoodAvailable); !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict moving back to Available, got %v", err)
	}

	if _, err := c.SetStatus(ctx, f.ID, "Eaten"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
	if _, err := c.SetStatus(ctx, "missing", model.FoodDonated); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f, _ := c.Create(ctx, dana, soupInput())

	if err := c.Remove(ctx, f.ID, "e@x.org"); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := c.Get(ctx, f.ID); err != nil {
		t.Fatalf("expected food to survive forbidden remove: %v", err)
	}

	if err := c.Remove(ctx, f.ID, "d@x.org"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := c.Get(ctx, f.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}
	if err := c.Remove(ctx, f.ID, "d@x.org"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	a, _ := c.Create(ctx, dana, soupInput())
	c.Create(ctx, model.Identity{Name: "Eve", Email: "e@x.org"}, soupInput())
	c.SetStatus(ctx, a.ID, model.FoodDonated)

	available, err := store.Collect(c.List(ctx, Filter{Status: "AVAILABLE"}))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(available) != 1 || available[0].Donor.Email != "e@x.org" {
		t.Errorf("expected only Eve's food to be available, got %+v", available)
	}

	mine, _ := store.Collect(c.List(ctx, Filter{DonorEmail: "D@x.org"}))
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("expected only Dana's food, got %+v", mine)
	}
}

func TestFeatured(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	for _, q := range []string{"2 bags", "lots", "12 servings", "7 trays", "3 boxes", "40 rolls", "1 pot", "9 cans"} {
		in := soupInput()
		in.Quantity = q
		if _, err := c.Create(ctx, dana, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	featured, err := c.Featured(ctx, 0)
	if err != nil {
		t.Fatalf("Featured: %v", err)
	}
	if len(featured) != DefaultFeatured {
		t.Fatalf("expected %d featured foods, got %d", DefaultFeatured, len(featured))
	}
	want := []string{"40 rolls", "12 servings", "9 cans", "7 trays", "3 boxes", "2 bags"}
	for i, f := range featured {
		if f.Quantity != want[i] {
			t.Errorf("featured[%d]: expected %q, got %q", i, want[i], f.Quantity)
		}
	}
}
