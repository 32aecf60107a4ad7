package store

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/plateshare/plateshare/internal/model"
)

const foodTableName = "foods"

var foodTableColumns = []string{
	"id",
	"name",
	"image_url",
	"image_mime",
	"quantity",
	"category",
	"pickup_location",
	"expire_date",
	"notes",
	"status",
	"donor_name",
	"donor_email",
	"donor_image",
	"created_at",
	"updated_at",
}

type foodRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	ImageURL       string    `db:"image_url"`
	ImageMIME      string    `db:"image_mime"`
	Quantity       string    `db:"quantity"`
	Category       string    `db:"category"`
	PickupLocation string    `db:"pickup_location"`
	ExpireDate     string    `db:"expire_date"`
	Notes          string    `db:"notes"`
	Status         string    `db:"status"`
	DonorName      string    `db:"donor_name"`
	DonorEmail     string    `db:"donor_email"`
	DonorImage     string    `db:"donor_image"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r foodRow) food() model.Food {
	return model.Food{
		ID:             r.ID,
		Name:           r.Name,
		ImageURL:       r.ImageURL,
		ImageMIME:      r.ImageMIME,
		Quantity:       r.Quantity,
		Category:       r.Category,
		PickupLocation: r.PickupLocation,
		ExpireDate:     r.ExpireDate,
		Notes:          r.Notes,
		Status:         model.FoodStatus(r.Status),
		Donor: model.Identity{
			Name:  r.DonorName,
			Email: r.DonorEmail,
			Image: r.DonorImage,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// InsertFood stores a new food item, assigning its id and timestamps.
func (s *SQLStore) InsertFood(ctx context.Context, f *model.Food) error {
	now := s.timestamp()
	f.ID = NewID()
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = model.FoodAvailable
	}

	var image any
	if len(f.Image) > 0 {
		image = f.Image
	}

	_, err := s.exec(ctx, s.sb.
		Insert(foodTableName).
		Columns(append(foodTableColumns, "image")...).
		Values(
			f.ID, f.Name, f.ImageURL, f.ImageMIME, f.Quantity, f.Category,
			f.PickupLocation, f.ExpireDate, f.Notes, string(f.Status),
			f.Donor.Name, f.Donor.Email, f.Donor.Image,
			f.CreatedAt, f.UpdatedAt, image,
		))
	if err != nil {
		return fmt.Errorf("creating food: %w", err)
	}
	return nil
}

// GetFood returns a food item by id without its inline image bytes.
func (s *SQLStore) GetFood(ctx context.Context, id string) (*model.Food, error) {
	var r foodRow
	err := s.get(ctx, &r, s.sb.
		Select(foodTableColumns...).
		From(foodTableName).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("getting food %s: %w", id, err)
	}
	f := r.food()
	return &f, nil
}

// GetFoodImage returns the inline image data and MIME type of a food item.
func (s *SQLStore) GetFoodImage(ctx context.Context, id string) ([]byte, string, error) {
	var r struct {
		Image     []byte `db:"image"`
		ImageMIME string `db:"image_mime"`
	}
	err := s.get(ctx, &r, s.sb.
		Select("image", "image_mime").
		From(foodTableName).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, "", fmt.Errorf("getting food image %s: %w", id, err)
	}
	if len(r.Image) == 0 {
		return nil, "", fmt.Errorf("food %s has no image: %w", id, model.ErrNotFound)
	}
	return r.Image, r.ImageMIME, nil
}

// ListFoods yields food items in creation order. Status and donor email
// match case-insensitively.
func (s *SQLStore) ListFoods(ctx context.Context, filter FoodFilter) iter.Seq2[model.Food, error] {
	q := s.sb.
		Select(foodTableColumns...).
		From(foodTableName).
		OrderBy("seq")
	if v := strings.TrimSpace(filter.Status); v != "" {
		q = q.Where("LOWER(status) = LOWER(?)", v)
	}
	if v := strings.TrimSpace(filter.DonorEmail); v != "" {
		q = q.Where("LOWER(donor_email) = LOWER(?)", v)
	}
	return scanSeq(ctx, s, q, "foods", foodRow.food)
}

// UpdateFood overwrites the editable fields of a food item. Status and
// donor are left untouched. Image bytes are replaced when f.Image is set
// and cleared when f has no inline image.
func (s *SQLStore) UpdateFood(ctx context.Context, f *model.Food) error {
	f.UpdatedAt = s.timestamp()

	q := s.sb.
		Update(foodTableName).
		Set("name", f.Name).
		Set("image_url", f.ImageURL).
		Set("image_mime", f.ImageMIME).
		Set("quantity", f.Quantity).
		Set("category", f.Category).
		Set("pickup_location", f.PickupLocation).
		Set("expire_date", f.ExpireDate).
		Set("notes", f.Notes).
		Set("updated_at", f.UpdatedAt).
		Where(squirrel.Eq{"id": f.ID})
	switch {
	case len(f.Image) > 0:
		q = q.Set("image", f.Image)
	case !f.HasInlineImage():
		q = q.Set("image", nil)
	}

	n, err := s.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("updating food %s: %w", f.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("updating food %s: %w", f.ID, model.ErrNotFound)
	}
	return nil
}

// SetFoodStatus overwrites the status of a food item.
func (s *SQLStore) SetFoodStatus(ctx context.Context, id string, status model.FoodStatus) error {
	n, err := s.exec(ctx, s.sb.
		Update(foodTableName).
		Set("status", string(status)).
		Set("updated_at", s.timestamp()).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("setting food %s status: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("setting food %s status: %w", id, model.ErrNotFound)
	}
	return nil
}

// DeleteFood removes a food item. Requests that reference it are kept.
func (s *SQLStore) DeleteFood(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.sb.
		Delete(foodTableName).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("deleting food %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("deleting food %s: %w", id, model.ErrNotFound)
	}
	return nil
}
