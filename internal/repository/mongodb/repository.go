package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/session"
)

const (
	snapshotCollection = "yearly_snapshots"
	sessionCollection  = "sessions"
)

// Repository defines the persistence operations backed by MongoDB.
type Repository interface {
	session.Store
	SaveSnapshot(ctx context.Context, snap models.YearlySnapshot) error
	LatestSnapshot(ctx context.Context, email string, year int) (models.YearlySnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository connects, pings and prepares the indexes.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{client: client, dbName: dbName}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection(sessionCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create session ttl index: %w", err)
	}

	_, err = r.collection(snapshotCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "year", Value: 1}, {Key: "captured_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot index: %w", err)
	}
	return nil
}

// snapshotDocument stores money as strings so no precision is lost.
type snapshotDocument struct {
	Email      string          `bson:"email"`
	Year       int             `bson:"year"`
	Months     []monthDocument `bson:"months"`
	Total      string          `bson:"total"`
	CapturedAt time.Time       `bson:"captured_at"`
}

type monthDocument struct {
	Month  string `bson:"month"`
	Profit string `bson:"profit"`
}

func toSnapshotDocument(snap models.YearlySnapshot) snapshotDocument {
	doc := snapshotDocument{
		Email:      snap.Email,
		Year:       snap.Year,
		Months:     make([]monthDocument, 0, models.MonthsInYear),
		Total:      snap.Total.String(),
		CapturedAt: snap.CapturedAt,
	}
	for _, m := range snap.Months {
		doc.Months = append(doc.Months, monthDocument{Month: m.Name(), Profit: m.Profit.String()})
	}
	return doc
}

func fromSnapshotDocument(doc snapshotDocument) (models.YearlySnapshot, error) {
	snap := models.YearlySnapshot{Email: doc.Email, Year: doc.Year, CapturedAt: doc.CapturedAt}
	for i := range snap.Months {
		snap.Months[i] = models.MonthProfit{Index: models.MonthIndex(i), Profit: decimal.Zero}
	}
	for _, m := range doc.Months {
		month, err := models.ParseMonth(m.Month)
		if err != nil {
			return models.YearlySnapshot{}, fmt.Errorf("snapshot month %q: %w", m.Month, err)
		}
		profit, err := decimal.NewFromString(m.Profit)
		if err != nil {
			return models.YearlySnapshot{}, fmt.Errorf("snapshot profit %q: %w", m.Profit, err)
		}
		idx := models.MonthIndexOf(month)
		snap.Months[idx].Profit = profit
	}
	total, err := decimal.NewFromString(doc.Total)
	if err != nil {
		return models.YearlySnapshot{}, fmt.Errorf("snapshot total %q: %w", doc.Total, err)
	}
	snap.Total = total
	return snap, nil
}

// SaveSnapshot stores a captured yearly report.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snap models.YearlySnapshot) error {
	_, err := r.collection(snapshotCollection).InsertOne(ctx, toSnapshotDocument(snap))
	if err != nil {
		return fmt.Errorf("failed to insert yearly snapshot: %w", err)
	}
	return nil
}

// ErrNoSnapshot is returned when no snapshot exists for an email and year.
var ErrNoSnapshot = errors.New("no snapshot found")

// LatestSnapshot returns the most recent snapshot for email and year.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context, email string, year int) (models.YearlySnapshot, error) {
	var doc snapshotDocument
	err := r.collection(snapshotCollection).FindOne(ctx,
		bson.M{"email": models.NormalizeEmail(email), "year": year},
		options.FindOne().SetSort(bson.D{{Key: "captured_at", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.YearlySnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return models.YearlySnapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return fromSnapshotDocument(doc)
}

// Save upserts a session document.
func (r *MongoDBRepository) Save(ctx context.Context, sess models.Session) error {
	_, err := r.collection(sessionCollection).ReplaceOne(ctx,
		bson.M{"_id": sess.ID}, sess, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get loads a session document.
func (r *MongoDBRepository) Get(ctx context.Context, id string) (models.Session, error) {
	var sess models.Session
	err := r.collection(sessionCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Session{}, session.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// Delete removes a session document.
func (r *MongoDBRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection(sessionCollection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
