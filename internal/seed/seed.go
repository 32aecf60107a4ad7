// Package seed loads demo listings and requests from a YAML fixture.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/lifecycle"
	"github.com/plateshare/plateshare/internal/model"
)

// Fixture is the root of a seed file.
type Fixture struct {
	Foods []Food `yaml:"foods"`
}

// Person is an identity in a seed file.
type Person struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Image string `yaml:"image,omitempty"`
}

func (p Person) identity() model.Identity {
	return model.Identity{Name: p.Name, Email: p.Email, Image: p.Image}
}

// Food is a listing to create. ExpiresInDays is relative to the day the
// fixture is applied and wins over ExpireDate.
type Food struct {
	Donor          Person    `yaml:"donor"`
	Name           string    `yaml:"name"`
	ImageURL       string    `yaml:"image_url"`
	Quantity       string    `yaml:"quantity"`
	Category       string    `yaml:"category"`
	PickupLocation string    `yaml:"pickup_location"`
	ExpireDate     string    `yaml:"expire_date,omitempty"`
	ExpiresInDays  int       `yaml:"expires_in_days,omitempty"`
	Notes          string    `yaml:"notes,omitempty"`
	Requests       []Request `yaml:"requests,omitempty"`
}

// Request is a pickup request to create. Status "accepted" or "rejected"
// is applied by the donor after creation.
type Request struct {
	Requester Person `yaml:"requester"`
	Location  string `yaml:"location"`
	Reason    string `yaml:"reason"`
	Contact   string `yaml:"contact"`
	Status    string `yaml:"status,omitempty"`
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &f, nil
}

// Result counts what Apply created.
type Result struct {
	Foods    int
	Requests int
}

// Seeder applies fixtures through the same services the API uses, so seeded
// data passes the usual validation.
type Seeder struct {
	Catalog   *catalog.Catalog
	Ledger    *ledger.Ledger
	Lifecycle *lifecycle.Coordinator
	Log       logrus.FieldLogger
	Now       func() time.Time
}

// Apply creates every listing and request of f in order.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Result, error) {
	var res Result
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	for i, food := range f.Foods {
		expire := food.ExpireDate
		if food.ExpiresInDays > 0 || expire == "" {
			expire = now().AddDate(0, 0, food.ExpiresInDays).Format(model.DateLayout)
		}

		created, err := s.Catalog.Create(ctx, food.Donor.identity(), catalog.FoodInput{
			Name:           food.Name,
			ImageURL:       food.ImageURL,
			Quantity:       food.Quantity,
			Category:       food.Category,
			PickupLocation: food.PickupLocation,
			ExpireDate:     expire,
			Notes:          food.Notes,
		})
		if err != nil {
			return res, fmt.Errorf("food %d (%s): %w", i, food.Name, err)
		}
		res.Foods++

		for j, r := range food.Requests {
			if err := s.request(ctx, created, r); err != nil {
				return res, fmt.Errorf("food %d request %d: %w", i, j, err)
			}
			res.Requests++
		}

		s.Log.WithFields(logrus.Fields{
			"food_id":  created.ID,
			"name":     created.Name,
			"requests": len(food.Requests),
		}).Info("seeded food")
	}

	return res, nil
}

func (s *Seeder) request(ctx context.Context, food *model.Food, r Request) error {
	created, err := s.Ledger.Create(ctx, food.ID, r.Requester.identity(), ledger.RequestInput{
		Location: r.Location,
		Reason:   r.Reason,
		Contact:  r.Contact,
	})
	if err != nil {
		return err
	}

	if r.Status == "" {
		return nil
	}
	status, ok := model.ParseRequestStatus(r.Status)
	if !ok {
		return model.Invalid("status", fmt.Sprintf("unknown request status %q", r.Status))
	}

	switch status {
	case model.RequestAccepted:
		_, err = s.Lifecycle.Accept(ctx, created.ID, food.Donor.Email)
	case model.RequestRejected:
		_, err = s.Lifecycle.Reject(ctx, created.ID, food.Donor.Email)
	}
	return err
}
