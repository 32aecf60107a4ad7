package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/plateshare/plateshare/internal/api"
	"github.com/plateshare/plateshare/internal/auth"
	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/db"
	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/lifecycle"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

const testSecret = "remote-test-secret"

var (
	donor     = model.Identity{Name: "Dana", Email: "dana@x.org"}
	requester = model.Identity{Name: "Rob", Email: "rob@x.org"}
)

// startAPI runs a real API server over an in-memory database and returns
// clients acting as the donor and the requester.
func startAPI(t *testing.T) (donorClient, requesterClient *Client) {
	t.Helper()
	s := store.New(db.NewTestDB(t), db.SQLite)
	log, _ := logtest.NewNullLogger()

	c := catalog.New(s)
	l := ledger.New(s, c)
	server := httptest.NewServer(api.NewRouter(api.Deps{
		Catalog:   c,
		Ledger:    l,
		Lifecycle: lifecycle.New(l, c, lifecycle.WithLogger(log)),
		Auth:      auth.NewProvider(testSecret, s),
		Tokens:    s,
		Logger:    log,
	}))
	t.Cleanup(server.Close)

	client := func(who model.Identity) *Client {
		tok, err := auth.GenerateToken(testSecret, who, time.Hour)
		if err != nil {
			t.Fatalf("generating token: %v", err)
		}
		return New(server.URL, WithToken(tok), WithLogger(log))
	}
	return client(donor), client(requester)
}

func soup() catalog.FoodInput {
	return catalog.FoodInput{
		Name:           "Vegetable Soup",
		ImageURL:       "http://x/soup.jpg",
		Quantity:       "5 boxes",
		PickupLocation: "Main St 1",
		ExpireDate:     time.Now().AddDate(0, 0, 2).Format(model.DateLayout),
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	donorClient, requesterClient := startAPI(t)
	ctx := context.Background()

	donorCatalog := catalog.New(donorClient)
	f, err := donorCatalog.Create(ctx, donor, soup())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ID == "" || f.Status != model.FoodAvailable || f.Donor.Email != donor.Email {
		t.Fatalf("expected server-assigned listing, got %+v", f)
	}

	requesterLedger := ledger.New(requesterClient, catalog.New(requesterClient))
	r, err := requesterLedger.Create(ctx, f.ID, requester, ledger.RequestInput{
		Location: "Elm St 2",
		Reason:   "family dinner",
		Contact:  "555-0100",
	})
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if r.ID == "" || r.Status != model.RequestPending || r.DonorEmail != donor.Email {
		t.Fatalf("expected pending request for the donor, got %+v", r)
	}

	donorLedger := ledger.New(donorClient, donorCatalog)
	byFood, err := store.Collect(donorLedger.ListByFood(ctx, f.ID))
	if err != nil || len(byFood) != 1 {
		t.Fatalf("expected 1 request for the food, got %d (%v)", len(byFood), err)
	}

	co := lifecycle.New(donorLedger, donorCatalog)
	accepted, err := co.Accept(ctx, r.ID, donor.Email)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != model.RequestAccepted {
		t.Errorf("expected accepted, got %q", accepted.Status)
	}

	got, err := donorCatalog.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.FoodDonated {
		t.Errorf("expected food to be Donated, got %q", got.Status)
	}
}

func TestListFoodsRefetches(t *testing.T) {
	donorClient, _ := startAPI(t)
	ctx := context.Background()
	c := catalog.New(donorClient)

	if _, err := c.Create(ctx, donor, soup()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	seq := donorClient.ListFoods(ctx, store.FoodFilter{})
	first, err := store.Collect(seq)
	if err != nil || len(first) != 1 {
		t.Fatalf("expected 1 food, got %d (%v)", len(first), err)
	}

	if _, err := c.Create(ctx, donor, soup()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := store.Collect(seq)
	if err != nil || len(second) != 2 {
		t.Errorf("expected the same sequence to see 2 foods, got %d (%v)", len(second), err)
	}
}

func TestErrorMapping(t *testing.T) {
	donorClient, requesterClient := startAPI(t)
	ctx := context.Background()

	if _, err := donorClient.GetFood(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var verr *model.ValidationError
	err := donorClient.InsertFood(ctx, &model.Food{Quantity: "1"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "name" {
		t.Errorf("expected field name, got %q", verr.Field)
	}

	f, err := catalog.New(donorClient).Create(ctx, donor, soup())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.Name = "Stolen Soup"
	if err := requesterClient.UpdateFood(ctx, f); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	r := &model.Request{FoodID: f.ID, Location: "Elm St 2", Reason: "dinner", Contact: "555"}
	if err := requesterClient.InsertRequest(ctx, r); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}
	if _, err := donorClient.TransitionRequest(ctx, r.ID, model.RequestPending, model.RequestRejected); err != nil {
		t.Fatalf("TransitionRequest: %v", err)
	}
	_, err = donorClient.TransitionRequest(ctx, r.ID, model.RequestPending, model.RequestAccepted)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	anonymous := New(donorClient.http.BaseURL)
	if err := anonymous.DeleteFood(ctx, f.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden without a token, got %v", err)
	}
}

func TestTransportErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	log, hook := logtest.NewNullLogger()
	c := New(server.URL, WithLogger(log))
	ctx := context.Background()

	for range 3 {
		if _, err := c.GetFood(ctx, "x"); !errors.Is(err, model.ErrTransport) {
			t.Fatalf("expected ErrTransport, got %v", err)
		}
	}

	// The breaker is open now and the server is not called again.
	if _, err := c.GetFood(ctx, "x"); !errors.Is(err, model.ErrTransport) {
		t.Errorf("expected ErrTransport from the open breaker, got %v", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("expected 3 calls to reach the server, got %d", n)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Data["to"] != "open" {
		t.Errorf("expected a breaker state change to be logged, got %+v", entry)
	}
}

func TestUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := New(url, WithTimeout(time.Second))
	if _, err := c.GetFood(context.Background(), "x"); !errors.Is(err, model.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestPartialFailureIsNotTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"accepted but not donated","code":"partial_failure"}`))
	}))
	t.Cleanup(server.Close)

	c := New(server.URL)
	_, err := c.TransitionRequest(context.Background(), "r1", model.RequestPending, model.RequestAccepted)
	if !errors.Is(err, model.ErrPartialFailure) {
		t.Errorf("expected ErrPartialFailure, got %v", err)
	}
	if errors.Is(err, model.ErrTransport) {
		t.Errorf("expected partial failure not to count as transport, got %v", err)
	}
}

func TestWhoamiAndLogout(t *testing.T) {
	donorClient, _ := startAPI(t)
	ctx := context.Background()

	who, err := donorClient.Whoami(ctx)
	if err != nil {
		t.Fatalf("Whoami: %v", err)
	}
	if who.Email != donor.Email {
		t.Errorf("expected %s, got %s", donor.Email, who.Email)
	}

	anonymous := New(donorClient.http.BaseURL)
	if _, err := anonymous.Whoami(ctx); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden for an anonymous client, got %v", err)
	}

	if err := donorClient.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := donorClient.Whoami(ctx); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden after logout, got %v", err)
	}
}
