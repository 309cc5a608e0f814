package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aruiz/shopsense/internal/event"
	"github.com/aruiz/shopsense/internal/services"
	"github.com/aruiz/shopsense/internal/testutil"
	"github.com/aruiz/shopsense/pkg/models"
)

func newProductRepo(t *testing.T, bus *event.Bus) services.ProductRepository {
	t.Helper()
	st := testutil.NewStore(t)
	repo, err := services.NewSQLiteProductRepository(context.Background(), st, bus)
	if err != nil {
		t.Fatalf("NewSQLiteProductRepository: %v", err)
	}
	return repo
}

func TestSQLiteProductRepository_CreateAndGet(t *testing.T) {
	repo := newProductRepo(t, nil)
	ctx := context.Background()

	p := testutil.NewProduct(
		testutil.WithName("UltraBook 14"),
		testutil.WithPrice(1299),
		testutil.WithFeature(models.FeatureRAM, "16GB LPDDR5X"),
		testutil.WithDefaultConfig(models.FeatureStorage, "512GB SSD"),
	)

	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Name != "UltraBook 14" {
		t.Errorf("Name = %q, want %q", got.Name, "UltraBook 14")
	}
	if !got.BasePrice.Equal(decimal.NewFromInt(1299)) {
		t.Errorf("BasePrice = %s, want 1299", got.BasePrice)
	}
	if name, _, ok := got.FeatureValue(models.FeatureRAM); !ok || name != "16GB LPDDR5X" {
		t.Errorf("FeatureValue(ram) = %q, %v; want stored selected component", name, ok)
	}
	if name, _, ok := got.FeatureValue(models.FeatureStorage); !ok || name != "512GB SSD" {
		t.Errorf("FeatureValue(storage) = %q, %v; want stored default config", name, ok)
	}
}

func TestSQLiteProductRepository_CreateGeneratesID(t *testing.T) {
	repo := newProductRepo(t, nil)
	ctx := context.Background()

	p := testutil.NewProduct(testutil.WithID(""))
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Error("Create left product ID empty, want generated UUID")
	}
}

func TestSQLiteProductRepository_GetNotFound(t *testing.T) {
	repo := newProductRepo(t, nil)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteProductRepository_ListFilters(t *testing.T) {
	repo := newProductRepo(t, nil)
	ctx := context.Background()

	for _, p := range []models.Product{
		testutil.NewProduct(testutil.WithName("ProBook"), testutil.WithCategory("Laptops")),
		testutil.NewProduct(testutil.WithName("SlimTab"), testutil.WithCategory("Tablets")),
		testutil.NewProduct(testutil.WithName("GameBook"), testutil.WithCategory("laptops")),
	} {
		p := p
		if err := repo.Create(ctx, &p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	t.Run("category is case-insensitive", func(t *testing.T) {
		got, err := repo.List(ctx, services.ProductFilter{Category: "Laptops"}, services.ListOptions{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got.Total != 2 {
			t.Errorf("Total = %d, want 2", got.Total)
		}
	})

	t.Run("search matches name", func(t *testing.T) {
		got, err := repo.List(ctx, services.ProductFilter{Search: "Tab"}, services.ListOptions{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got.Total != 1 || got.Items[0].Name != "SlimTab" {
			t.Errorf("search result = %+v, want only SlimTab", got.Items)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		got, err := repo.List(ctx, services.ProductFilter{}, services.ListOptions{Limit: 2})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got.Items) != 2 || got.Total != 3 {
			t.Errorf("len(Items) = %d, Total = %d; want 2 items of 3 total", len(got.Items), got.Total)
		}
	})
}

func TestSQLiteProductRepository_SnapshotExcludesInactive(t *testing.T) {
	repo := newProductRepo(t, nil)
	ctx := context.Background()

	active := testutil.NewProduct(testutil.WithCategory("Laptops"))
	inactive := testutil.NewProduct(testutil.WithCategory("Laptops"), testutil.WithInactive())
	other := testutil.NewProduct(testutil.WithCategory("Tablets"))
	for _, p := range []*models.Product{&active, &inactive, &other} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.Snapshot(ctx, "Laptops")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Errorf("Snapshot = %d products, want only the active laptop", len(got))
	}
}

func TestSQLiteProductRepository_UpdateAndDelete(t *testing.T) {
	repo := newProductRepo(t, nil)
	ctx := context.Background()

	p := testutil.NewProduct()
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.Name = "renamed"
	p.BasePrice = decimal.NewFromInt(888)
	if err := repo.Update(ctx, &p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Name != "renamed" || !got.BasePrice.Equal(decimal.NewFromInt(888)) {
		t.Errorf("updated product = %q/%s, want renamed/888", got.Name, got.BasePrice)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, p.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, p.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteProductRepository_PublishesEvents(t *testing.T) {
	bus := event.NewBus(testutil.Logger())
	repo := newProductRepo(t, bus)
	ctx := context.Background()

	var topics []string
	bus.SubscribeAll(func(ctx context.Context, e event.Event) {
		topics = append(topics, e.Topic)
	})

	p := testutil.NewProduct()
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Update(ctx, &p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []string{event.TopicProductCreated, event.TopicProductUpdated, event.TopicProductDeleted}
	if len(topics) != len(want) {
		t.Fatalf("published topics = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestSQLiteProductRepository_Count(t *testing.T) {
	repo := newProductRepo(t, nil)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count on empty table = %d, want 0", n)
	}

	p := testutil.NewProduct()
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	n, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}
