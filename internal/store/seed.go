package store

import (
	"context"
	"fmt"

	"github.com/ashendes/retail-api/internal/models"
)

// SeedCatalog inserts the given customers and items when their tables are
// empty. Tables that already hold rows are left alone.
func SeedCatalog(ctx context.Context, s Store, customers []models.Customer, items []models.Item) error {
	return s.WithTx(ctx, func(tx Store) error {
		n, err := tx.Customers().Count(ctx)
		if err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		if n == 0 {
			for i := range customers {
				if err := tx.Customers().Create(ctx, &customers[i]); err != nil {
					return fmt.Errorf("create customer %q: %w", customers[i].Name, err)
				}
			}
		}

		n, err = tx.Items().Count(ctx)
		if err != nil {
			return fmt.Errorf("count items: %w", err)
		}
		if n == 0 {
			for i := range items {
				if err := tx.Items().Create(ctx, &items[i]); err != nil {
					return fmt.Errorf("create item %q: %w", items[i].Name, err)
				}
			}
		}
		return nil
	})
}
