package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

const invoicesCollection = "invoices"

type InvoiceRepository struct {
	coll *mongo.Collection
}

func NewInvoiceRepository(db *mongo.Database) *InvoiceRepository {
	return &InvoiceRepository{coll: db.Collection(invoicesCollection)}
}

type mongoStatusEntry struct {
	Status    string    `bson:"status"`
	Timestamp time.Time `bson:"timestamp"`
	ActorID   string    `bson:"actor_id,omitempty"`
	Notes     string    `bson:"notes,omitempty"`
}

type mongoInvoice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Number        string             `bson:"number"`
	SupplierName  string             `bson:"supplier_name"`
	SupplierTaxID string             `bson:"supplier_tax_id,omitempty"`
	GroupID       string             `bson:"grupo_id"`
	Amount        float64            `bson:"amount"`
	Currency      string             `bson:"currency"`
	IssuedAt      time.Time          `bson:"issued_at"`
	Status        string             `bson:"status"`
	StatusHistory []mongoStatusEntry `bson:"status_history"`
	MailAccountID string             `bson:"mail_account_id,omitempty"`
	CreatedAt     int64              `bson:"created_at"`
	UpdatedAt     int64              `bson:"updated_at"`
}

func (mi mongoInvoice) toDomain() *domain.Invoice {
	history := make([]domain.StatusEntry, 0, len(mi.StatusHistory))
	for _, e := range mi.StatusHistory {
		history = append(history, domain.StatusEntry{
			Status:    domain.InvoiceStatus(e.Status),
			Timestamp: e.Timestamp,
			ActorID:   e.ActorID,
			Notes:     e.Notes,
		})
	}
	return &domain.Invoice{
		ID:            mi.ID.Hex(),
		Number:        mi.Number,
		SupplierName:  mi.SupplierName,
		SupplierTaxID: mi.SupplierTaxID,
		GroupID:       mi.GroupID,
		Amount:        mi.Amount,
		Currency:      mi.Currency,
		IssuedAt:      mi.IssuedAt,
		Status:        domain.InvoiceStatus(mi.Status),
		StatusHistory: history,
		MailAccountID: mi.MailAccountID,
		CreatedAt:     unixToTime(mi.CreatedAt),
		UpdatedAt:     unixToTime(mi.UpdatedAt),
	}
}

func toMongoInvoice(inv *domain.Invoice) mongoInvoice {
	history := make([]mongoStatusEntry, 0, len(inv.StatusHistory))
	for _, e := range inv.StatusHistory {
		history = append(history, mongoStatusEntry{
			Status:    string(e.Status),
			Timestamp: e.Timestamp,
			ActorID:   e.ActorID,
			Notes:     e.Notes,
		})
	}
	return mongoInvoice{
		Number:        inv.Number,
		SupplierName:  inv.SupplierName,
		SupplierTaxID: inv.SupplierTaxID,
		GroupID:       inv.GroupID,
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		IssuedAt:      inv.IssuedAt,
		Status:        string(inv.Status),
		StatusHistory: history,
		MailAccountID: inv.MailAccountID,
		CreatedAt:     inv.CreatedAt.Unix(),
		UpdatedAt:     inv.UpdatedAt.Unix(),
	}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	res, err := r.coll.InsertOne(ctx, toMongoInvoice(inv))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateInvoice
		}
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	created := *inv
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id string, groupID string) (*domain.Invoice, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvoiceNotFound
	}

	filter := bson.M{"_id": oid}
	if groupID != "" {
		filter["grupo_id"] = groupID
	}

	var mi mongoInvoice
	if err := r.coll.FindOne(ctx, filter).Decode(&mi); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	return mi.toDomain(), nil
}

func (r *InvoiceRepository) List(ctx context.Context, filter ports.ListInvoicesFilter) ([]*domain.Invoice, int64, error) {
	query := bson.M{}
	if filter.GroupID != "" {
		query["grupo_id"] = filter.GroupID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"number": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"supplier_name": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}
	dateRange := bson.M{}
	if !filter.DateFrom.IsZero() {
		dateRange["$gte"] = filter.DateFrom
	}
	if !filter.DateTo.IsZero() {
		dateRange["$lte"] = filter.DateTo
	}
	if len(dateRange) > 0 {
		query["issued_at"] = dateRange
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "issued_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer cur.Close(ctx)

	var invoices []*domain.Invoice
	for cur.Next(ctx) {
		var mi mongoInvoice
		if err := cur.Decode(&mi); err != nil {
			return nil, 0, fmt.Errorf("decode invoice: %w", err)
		}
		invoices = append(invoices, mi.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, total, nil
}

// UpdateStatus atomically sets the invoice's new status and appends a history
// entry in one document update.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, entry domain.StatusEntry) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvoiceNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"status":     string(status),
			"updated_at": entry.Timestamp.Unix(),
		},
		"$push": bson.M{"status_history": mongoStatusEntry{
			Status:    string(entry.Status),
			Timestamp: entry.Timestamp,
			ActorID:   entry.ActorID,
			Notes:     entry.Notes,
		}},
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes backing list queries and the per-group
// invoice number uniqueness constraint.
func (r *InvoiceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "grupo_id", Value: 1}, {Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "issued_at", Value: -1}}},
	})
	return err
}
