package db

import (
	"context"
	"errors"

	"keyboardquipo/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned for ids that are not 24-char hex object ids.
var ErrInvalidID = errors.New("invalid id")

// ErrTransactionUsed is returned when a transactionId already paid for a different booking.
var ErrTransactionUsed = errors.New("transaction already used by another booking")

// Lookups return (nil, nil) for absent documents; handlers reply with a null body.

type PartStore interface {
	ListParts(ctx context.Context) ([]models.Part, error)
	GetPart(ctx context.Context, id string) (*models.Part, error)
	InsertPart(ctx context.Context, p *models.Part) (models.InsertResult, error)
	UpsertPart(ctx context.Context, id string, upd models.PartUpdate) (models.UpdateResult, error)
	DeletePart(ctx context.Context, id string) (models.DeleteResult, error)
}

type BookingStore interface {
	InsertBooking(ctx context.Context, b *models.Booking) (models.InsertResult, error)
	ListBookingsByBuyer(ctx context.Context, buyer string) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	// MarkBookingPaid records the payment and flips the booking's paid flag
	// together. A payment whose transactionId is already recorded is not
	// inserted again; one recorded for another booking fails with
	// ErrTransactionUsed and changes nothing.
	MarkBookingPaid(ctx context.Context, id string, p *models.Payment) (models.UpdateResult, error)
	DeleteBooking(ctx context.Context, id string) (models.DeleteResult, error)
	ListPaymentsByBooking(ctx context.Context, id string) ([]models.Payment, error)
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, email string, upd models.UserUpdate) (models.UpdateResult, error)
	SetRole(ctx context.Context, email, role string) (models.UpdateResult, error)
}

type ReviewStore interface {
	InsertReview(ctx context.Context, r *models.Review) (models.InsertResult, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
}

type ProfileStore interface {
	InsertProfile(ctx context.Context, p *models.Profile) (models.InsertResult, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Store is the full data store adapter.
type Store interface {
	PartStore
	BookingStore
	UserStore
	ReviewStore
	ProfileStore
	Close(ctx context.Context) error
}

// ParseID converts a hex id from a path parameter.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func insertResult(id primitive.ObjectID) models.InsertResult {
	return models.InsertResult{Acknowledged: true, InsertedID: id.Hex()}
}
