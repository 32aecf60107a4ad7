package store

import (
	"testing"
	"time"

	"github.com/plateshare/plateshare/internal/db"
	"github.com/plateshare/plateshare/internal/model"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	return New(db.NewTestDB(t), db.SQLite)
}

func sampleFood(donorEmail string) *model.Food {
	return &model.Food{
		Name:           "Vegetable Soup",
		ImageURL:       "http://x/y.jpg",
		Quantity:       "5 boxes",
		PickupLocation: "Main St 1",
		ExpireDate:     time.Now().AddDate(0, 0, 2).Format(model.DateLayout),
		Donor:          model.Identity{Name: "Dana", Email: donorEmail},
	}
}

func sampleRequest(foodID, donorEmail string) *model.Request {
	return &model.Request{
		FoodID:     foodID,
		Requester:  model.Identity{Name: "Rob", Email: "r@x.org"},
		Location:   "Elm St 2",
		Reason:     "family dinner",
		Contact:    "555-0100",
		DonorEmail: donorEmail,
	}
}
