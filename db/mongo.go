package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keyboardquipo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore holds the single shared client and the collection handles.
// The driver pools connections internally.
type MongoStore struct {
	Client *mongo.Client

	PartsCollection    *mongo.Collection
	BookingsCollection *mongo.Collection
	UserCollection     *mongo.Collection
	PaymentsCollection *mongo.Collection
	ReviewsCollection  *mongo.Collection
	ProfilesCollection *mongo.Collection
}

// Connect dials MongoDB and pings the primary before returning.
func Connect(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	database := client.Database(dbName)
	return &MongoStore{
		Client:             client,
		PartsCollection:    database.Collection("parts"),
		BookingsCollection: database.Collection("bookings"),
		UserCollection:     database.Collection("users"),
		PaymentsCollection: database.Collection("payments"),
		ReviewsCollection:  database.Collection("reviews"),
		ProfilesCollection: database.Collection("profiles"),
	}, nil
}

// EnsureIndexes creates the unique keys the handlers rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true).SetName("unique_email"),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.PaymentsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"transactionId": 1},
		Options: options.Index().SetUnique(true).SetName("unique_transaction"),
	}); err != nil {
		return fmt.Errorf("payments index: %w", err)
	}
	if _, err := s.BookingsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"buyer": 1},
		Options: options.Index().SetName("buyer"),
	}); err != nil {
		return fmt.Errorf("bookings index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// findAll decodes every document matching filter; an empty match yields an
// empty, non-nil slice so it serialises as [].
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any) ([]T, error) {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// findOne returns (nil, nil) when nothing matches.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc any) (models.InsertResult, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return models.InsertResult{}, err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return insertResult(oid), nil
}

func updateResult(res *mongo.UpdateResult) models.UpdateResult {
	out := models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		out.UpsertedID = oid.Hex()
	}
	return out
}

// ===== Parts =====

func (s *MongoStore) ListParts(ctx context.Context) ([]models.Part, error) {
	return findAll[models.Part](ctx, s.PartsCollection, bson.M{})
}

func (s *MongoStore) GetPart(ctx context.Context, id string) (*models.Part, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Part](ctx, s.PartsCollection, bson.M{"_id": oid})
}

func (s *MongoStore) InsertPart(ctx context.Context, p *models.Part) (models.InsertResult, error) {
	p.ID = primitive.NilObjectID
	return insertOne(ctx, s.PartsCollection, p)
}

// UpsertPart overwrites the given fields, creating the document under id if it is missing.
func (s *MongoStore) UpsertPart(ctx context.Context, id string, upd models.PartUpdate) (models.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	res, err := s.PartsCollection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": upd},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (s *MongoStore) DeletePart(ctx context.Context, id string) (models.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	res, err := s.PartsCollection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// ===== Bookings =====

func (s *MongoStore) InsertBooking(ctx context.Context, b *models.Booking) (models.InsertResult, error) {
	b.ID = primitive.NilObjectID
	b.Paid = false
	b.TransactionID = ""
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	res, err := insertOne(ctx, s.BookingsCollection, b)
	if err != nil {
		return res, err
	}
	b.ID, _ = primitive.ObjectIDFromHex(res.InsertedID)
	return res, nil
}

func (s *MongoStore) ListBookingsByBuyer(ctx context.Context, buyer string) ([]models.Booking, error) {
	return findAll[models.Booking](ctx, s.BookingsCollection, bson.M{"buyer": buyer})
}

func (s *MongoStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Booking](ctx, s.BookingsCollection, bson.M{"_id": oid})
}

// MarkBookingPaid runs the booking update and the payment insert in one
// multi-document transaction (requires a replica set, which Atlas provides).
func (s *MongoStore) MarkBookingPaid(ctx context.Context, id string, p *models.Payment) (models.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		existing, err := findOne[models.Payment](sc, s.PaymentsCollection, bson.M{"transactionId": p.TransactionID})
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.BookingID != oid {
			return nil, ErrTransactionUsed
		}

		res, err := s.BookingsCollection.UpdateOne(sc,
			bson.M{"_id": oid},
			bson.M{"$set": bson.M{"paid": true, "transactionId": p.TransactionID}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 || existing != nil {
			return res, nil
		}

		p.ID = primitive.NewObjectID()
		p.BookingID = oid
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		if _, err := s.PaymentsCollection.InsertOne(sc, p); err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("mark booking paid: %w", err)
	}
	return updateResult(out.(*mongo.UpdateResult)), nil
}

func (s *MongoStore) DeleteBooking(ctx context.Context, id string) (models.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	res, err := s.BookingsCollection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (s *MongoStore) ListPaymentsByBooking(ctx context.Context, id string) ([]models.Payment, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findAll[models.Payment](ctx, s.PaymentsCollection, bson.M{"bookingId": oid})
}

// ===== Users =====

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, s.UserCollection, bson.M{})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.UserCollection, bson.M{"email": email})
}

func (s *MongoStore) UpsertUser(ctx context.Context, email string, upd models.UserUpdate) (models.UpdateResult, error) {
	set := bson.M{"email": email}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	res, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (s *MongoStore) SetRole(ctx context.Context, email, role string) (models.UpdateResult, error) {
	res, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return models.UpdateResult{}, err
	}
	return updateResult(res), nil
}

// ===== Reviews & profiles =====

func (s *MongoStore) InsertReview(ctx context.Context, r *models.Review) (models.InsertResult, error) {
	r.ID = primitive.NilObjectID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return insertOne(ctx, s.ReviewsCollection, r)
}

func (s *MongoStore) ListReviews(ctx context.Context) ([]models.Review, error) {
	return findAll[models.Review](ctx, s.ReviewsCollection, bson.M{})
}

func (s *MongoStore) InsertProfile(ctx context.Context, p *models.Profile) (models.InsertResult, error) {
	p.ID = primitive.NilObjectID
	return insertOne(ctx, s.ProfilesCollection, p)
}

func (s *MongoStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Profile](ctx, s.ProfilesCollection, bson.M{"_id": oid})
}
