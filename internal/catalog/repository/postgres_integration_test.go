//go:build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"product-catalog/internal/catalog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDBName = "test_catalog"
	testDBUser = "test"
	testDBPass = "test"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:17-alpine"),
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	migrationsPath := migrationsDir(t)
	m, err := migrate.New("file://"+migrationsPath, connStr)
	if err != nil {
		t.Fatalf("init migrate: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("run migrations: %v", err)
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		t.Fatalf("close migrate source: %v", srcErr)
	}
	if dbErr != nil {
		t.Fatalf("close migrate db: %v", dbErr)
	}

	return db
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	return filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations", "catalog")
}

func seed(t *testing.T, repo *PostgresRepository, name, description string, price float64, category string, stock int) catalog.Product {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p, err := repo.Insert(context.Background(), catalog.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed %q: %v", name, err)
	}
	return p
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestPostgresRepository_InsertAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	t.Run("round-trips all columns", func(t *testing.T) {
		created := seed(t, repo, "Smartphone", "Latest model", 999.99, "Electronics", 10)
		if created.ID == 0 {
			t.Fatal("expected non-zero ID")
		}

		got, err := repo.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Name != "Smartphone" || got.Description != "Latest model" {
			t.Fatalf("unexpected product: %+v", got)
		}
		if got.Price != 999.99 {
			t.Fatalf("want price 999.99, got %v", got.Price)
		}
		if got.Category != "Electronics" || got.Stock != 10 {
			t.Fatalf("unexpected product: %+v", got)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Fatal("expected non-zero timestamps")
		}
	})

	t.Run("auto-increments IDs", func(t *testing.T) {
		p1 := seed(t, repo, "A", "", 1, "", 0)
		p2 := seed(t, repo, "B", "", 1, "", 0)
		if p2.ID <= p1.ID {
			t.Fatalf("expected p2.ID > p1.ID, got %d <= %d", p2.ID, p1.ID)
		}
	})

	t.Run("empty description and category survive a NULL round-trip", func(t *testing.T) {
		created := seed(t, repo, "Bare", "", 5, "", 1)
		got, err := repo.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Description != "" || got.Category != "" {
			t.Fatalf("want empty description and category, got %+v", got)
		}
	})

	t.Run("returns ErrNotFound for missing ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 999999)
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}

func TestPostgresRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	t.Run("persists new values", func(t *testing.T) {
		p := seed(t, repo, "Smartphone", "Old", 999.99, "Electronics", 10)
		p.Price = 899.99
		p.Stock = 3
		p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		if _, err := repo.Update(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, _ := repo.FindByID(ctx, p.ID)
		if got.Price != 899.99 || got.Stock != 3 {
			t.Fatalf("update not persisted: %+v", got)
		}
		if got.Name != "Smartphone" {
			t.Fatalf("name should be unchanged, got %q", got.Name)
		}
	})

	t.Run("returns ErrNotFound for missing ID", func(t *testing.T) {
		_, err := repo.Update(ctx, catalog.Product{ID: 999999, Name: "Ghost", Price: 1, UpdatedAt: time.Now()})
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}

func TestPostgresRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	t.Run("deletes existing product", func(t *testing.T) {
		p := seed(t, repo, "ToDelete", "", 1, "", 0)
		if err := repo.Delete(ctx, p.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := repo.FindByID(ctx, p.ID); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("product %d should have been deleted, got %v", p.ID, err)
		}
	})

	t.Run("second delete returns ErrNotFound", func(t *testing.T) {
		p := seed(t, repo, "DeleteTwice", "", 1, "", 0)
		_ = repo.Delete(ctx, p.ID)
		err := repo.Delete(ctx, p.ID)
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("want ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestPostgresRepository_FindPage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	seed(t, repo, "Smartphone", "Latest model with 5G", 999.99, "Electronics", 10)
	seed(t, repo, "Laptop", "Lightweight workhorse", 1499.00, "electronics", 4)
	seed(t, repo, "T-Shirt", "Cotton, phone pocket", 19.99, "Clothing", 100)
	seed(t, repo, "Mug", "", 9.99, "", 2)

	nameAsc := catalog.SortSpec{Column: "name"}

	t.Run("no filter returns everything with total", func(t *testing.T) {
		list, total, err := repo.FindPage(ctx, catalog.Filter{}, nameAsc, 100, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 4 || len(list) != 4 {
			t.Fatalf("want 4/4, got total=%d len=%d", total, len(list))
		}
	})

	t.Run("sorts by the requested column", func(t *testing.T) {
		list, _, err := repo.FindPage(ctx, catalog.Filter{}, catalog.SortSpec{Column: "price", Descending: true}, 100, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 1; i < len(list); i++ {
			if list[i].Price > list[i-1].Price {
				t.Fatalf("expected descending prices, got %v after %v", list[i].Price, list[i-1].Price)
			}
		}
	})

	t.Run("limit and offset page through, total unaffected", func(t *testing.T) {
		all, _, _ := repo.FindPage(ctx, catalog.Filter{}, nameAsc, 100, 0)
		page2, total, err := repo.FindPage(ctx, catalog.Filter{}, nameAsc, 2, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 4 {
			t.Fatalf("want total 4, got %d", total)
		}
		if len(page2) != 2 || page2[0].ID != all[2].ID {
			t.Fatalf("offset mismatch: %+v", page2)
		}
	})

	t.Run("limit zero means no limit", func(t *testing.T) {
		list, _, err := repo.FindPage(ctx, catalog.Filter{}, nameAsc, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(list) != 4 {
			t.Fatalf("want all 4 rows, got %d", len(list))
		}
	})

	t.Run("search matches name or description case-insensitively", func(t *testing.T) {
		list, total, err := repo.FindPage(ctx, catalog.Filter{Search: "PHONE"}, nameAsc, 100, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 2 {
			t.Fatalf("want 2 matches, got %d", total)
		}
		if list[0].Name != "Smartphone" || list[1].Name != "T-Shirt" {
			t.Fatalf("unexpected order: %+v", list)
		}
	})

	t.Run("category filter ignores case", func(t *testing.T) {
		_, total, err := repo.FindPage(ctx, catalog.Filter{Category: "ELECTRONICS"}, nameAsc, 100, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 2 {
			t.Fatalf("want 2 electronics, got %d", total)
		}
	})

	t.Run("max stock is inclusive", func(t *testing.T) {
		list, _, err := repo.FindPage(ctx, catalog.Filter{MaxStock: intPtr(4)}, nameAsc, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("want Laptop and Mug, got %+v", list)
		}
	})

	t.Run("price bounds are inclusive", func(t *testing.T) {
		list, _, err := repo.FindPage(ctx, catalog.Filter{MinPrice: floatPtr(19.99), MaxPrice: floatPtr(999.99)}, nameAsc, 100, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(list) != 2 || list[0].Name != "Smartphone" || list[1].Name != "T-Shirt" {
			t.Fatalf("unexpected result: %+v", list)
		}
	})

	t.Run("no match returns empty slice and zero total", func(t *testing.T) {
		list, total, err := repo.FindPage(ctx, catalog.Filter{Search: "nonexistent"}, nameAsc, 100, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if list == nil || len(list) != 0 || total != 0 {
			t.Fatalf("want empty non-nil slice, got %v total=%d", list, total)
		}
	})
}

func TestPostgresRepository_DistinctCategories(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	seed(t, repo, "Smartphone", "", 999.99, "Electronics", 10)
	seed(t, repo, "Laptop", "", 1499.00, "Electronics", 4)
	seed(t, repo, "T-Shirt", "", 19.99, "Clothing", 100)
	seed(t, repo, "Mug", "", 9.99, "", 2)

	categories, err := repo.DistinctCategories(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 2 || categories[0] != "Clothing" || categories[1] != "Electronics" {
		t.Fatalf("want [Clothing Electronics], got %v", categories)
	}
}

func TestPostgresRepository_CountByCategory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	seed(t, repo, "Smartphone", "", 999.99, "Electronics", 10)
	seed(t, repo, "Laptop", "", 1499.00, "electronics", 4)
	seed(t, repo, "T-Shirt", "", 19.99, "Clothing", 100)

	count, err := repo.CountByCategory(ctx, "ELECTRONICS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("want 2, got %d", count)
	}

	count, err = repo.CountByCategory(ctx, "Books")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("want 0, got %d", count)
	}
}

func TestPostgresRepository_Health(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgres(db)

	if err := repo.Health(); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
}
