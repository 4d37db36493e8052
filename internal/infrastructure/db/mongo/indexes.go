package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the indexes every repository relies on. Called once
// at startup; index creation in MongoDB is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := NewInvoiceRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("invoices indexes: %w", err)
	}
	if err := NewMailAccountRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mail accounts indexes: %w", err)
	}
	return nil
}
