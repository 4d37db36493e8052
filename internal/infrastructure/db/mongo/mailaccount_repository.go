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
)

const mailAccountsCollection = "mail_accounts"

type MailAccountRepository struct {
	coll *mongo.Collection
}

func NewMailAccountRepository(db *mongo.Database) *MailAccountRepository {
	return &MailAccountRepository{coll: db.Collection(mailAccountsCollection)}
}

type mongoMailAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Address      string             `bson:"address"`
	Host         string             `bson:"host"`
	Port         int                `bson:"port"`
	Username     string             `bson:"username"`
	Secret       string             `bson:"secret"`
	GroupID      string             `bson:"grupo_id"`
	Enabled      bool               `bson:"enabled"`
	LastPolledAt int64              `bson:"last_polled_at,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (ma mongoMailAccount) toDomain() *domain.MailAccount {
	return &domain.MailAccount{
		ID:           ma.ID.Hex(),
		Address:      ma.Address,
		Host:         ma.Host,
		Port:         ma.Port,
		Username:     ma.Username,
		Secret:       ma.Secret,
		GroupID:      ma.GroupID,
		Enabled:      ma.Enabled,
		LastPolledAt: unixToTime(ma.LastPolledAt),
		CreatedAt:    unixToTime(ma.CreatedAt),
		UpdatedAt:    unixToTime(ma.UpdatedAt),
	}
}

func (r *MailAccountRepository) Create(ctx context.Context, acc *domain.MailAccount) (*domain.MailAccount, error) {
	doc := mongoMailAccount{
		Address:   acc.Address,
		Host:      acc.Host,
		Port:      acc.Port,
		Username:  acc.Username,
		Secret:    acc.Secret,
		GroupID:   acc.GroupID,
		Enabled:   acc.Enabled,
		CreatedAt: acc.CreatedAt.Unix(),
		UpdatedAt: acc.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrMailAccountExists
		}
		return nil, fmt.Errorf("insert mail account: %w", err)
	}

	created := *acc
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *MailAccountRepository) FindByID(ctx context.Context, id string) (*domain.MailAccount, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMailAccountNotFound
	}

	var ma mongoMailAccount
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMailAccountNotFound
		}
		return nil, fmt.Errorf("find mail account: %w", err)
	}
	return ma.toDomain(), nil
}

func (r *MailAccountRepository) List(ctx context.Context, groupID string) ([]*domain.MailAccount, error) {
	query := bson.M{}
	if groupID != "" {
		query["grupo_id"] = groupID
	}

	cur, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "address", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list mail accounts: %w", err)
	}
	defer cur.Close(ctx)

	var accounts []*domain.MailAccount
	for cur.Next(ctx) {
		var ma mongoMailAccount
		if err := cur.Decode(&ma); err != nil {
			return nil, fmt.Errorf("decode mail account: %w", err)
		}
		accounts = append(accounts, ma.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list mail accounts: %w", err)
	}
	return accounts, nil
}

func (r *MailAccountRepository) Update(ctx context.Context, acc *domain.MailAccount) (*domain.MailAccount, error) {
	oid, err := primitive.ObjectIDFromHex(acc.ID)
	if err != nil {
		return nil, domain.ErrMailAccountNotFound
	}

	set := bson.M{
		"address":    acc.Address,
		"host":       acc.Host,
		"port":       acc.Port,
		"username":   acc.Username,
		"grupo_id":   acc.GroupID,
		"enabled":    acc.Enabled,
		"updated_at": time.Now().UTC().Unix(),
	}
	// An empty secret means "keep the stored one"; credentials are write-only
	// from the dashboard's perspective.
	if acc.Secret != "" {
		set["secret"] = acc.Secret
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("update mail account: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrMailAccountNotFound
	}
	return r.FindByID(ctx, acc.ID)
}

func (r *MailAccountRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrMailAccountNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete mail account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMailAccountNotFound
	}
	return nil
}

func (r *MailAccountRepository) MarkPolled(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrMailAccountNotFound
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"last_polled_at": time.Now().UTC().Unix()},
	})
	if err != nil {
		return fmt.Errorf("mark polled: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique address index on the mail_accounts collection.
func (r *MailAccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "address", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "grupo_id", Value: 1}}},
	})
	return err
}
