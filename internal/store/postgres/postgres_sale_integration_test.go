package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"oshudkini/backend/internal/domain"
	"oshudkini/backend/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TEST_DATABASE_URL to run postgres integration tests")
	}

	s, err := New(context.Background(), databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestCreateAndDeleteSaleRoundTrip(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("IT Napa %d", time.Now().UnixNano())
	product, err := s.CreateProduct(ctx, domain.Product{
		Name:     name,
		Price:    5.0,
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
	})

	sale, err := s.CreateSale(ctx, domain.SaleDraft{
		CustomerName: "Integration",
		Items: []domain.SaleDraftItem{
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, sale.ID)
	})

	if sale.TotalAmount != 15.0 {
		t.Fatalf("expected total 15.0, got %v", sale.TotalAmount)
	}

	after, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", after.Quantity)
	}

	if _, err := s.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}

	restored, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if restored.Quantity != 10 {
		t.Fatalf("expected stock restored to 10, got %d", restored.Quantity)
	}
}

func TestCreateSaleInsufficientStockRollsBack(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("IT Seclo %d", time.Now().UnixNano())
	product, err := s.CreateProduct(ctx, domain.Product{
		Name:     name,
		Price:    8.0,
		Quantity: 2,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
	})

	_, err = s.CreateSale(ctx, domain.SaleDraft{
		CustomerName: "Integration",
		Items: []domain.SaleDraftItem{
			{ProductID: product.ID, Quantity: 5},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	after, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != 2 {
		t.Fatalf("expected stock untouched at 2, got %d", after.Quantity)
	}
}
