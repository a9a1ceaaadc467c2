package db

import (
	"context"
	"sync"
	"time"

	"keyboardquipo/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used for local runs (MONGO_URI=memory)
// and handler tests. Documents keep insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	parts    []models.Part
	bookings []models.Booking
	users    []models.User
	payments []models.Payment
	reviews  []models.Review
	profiles []models.Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Close(context.Context) error { return nil }

func indexOf[T any](docs []T, match func(T) bool) int {
	for i, d := range docs {
		if match(d) {
			return i
		}
	}
	return -1
}

func clone[T any](docs []T) []T {
	out := make([]T, len(docs))
	copy(out, docs)
	return out
}

// ===== Parts =====

func (m *MemoryStore) ListParts(context.Context) ([]models.Part, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.parts), nil
}

func (m *MemoryStore) GetPart(_ context.Context, id string) (*models.Part, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := indexOf(m.parts, func(p models.Part) bool { return p.ID == oid })
	if i < 0 {
		return nil, nil
	}
	p := m.parts[i]
	return &p, nil
}

func (m *MemoryStore) InsertPart(_ context.Context, p *models.Part) (models.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	m.parts = append(m.parts, *p)
	return insertResult(p.ID), nil
}

func (m *MemoryStore) UpsertPart(_ context.Context, id string, upd models.PartUpdate) (models.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.parts, func(p models.Part) bool { return p.ID == oid })
	if i < 0 {
		p := models.Part{ID: oid}
		upd.Apply(&p)
		m.parts = append(m.parts, p)
		return models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: oid.Hex()}, nil
	}
	before := m.parts[i]
	upd.Apply(&m.parts[i])
	res := models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if before != m.parts[i] {
		res.ModifiedCount = 1
	}
	return res, nil
}

func (m *MemoryStore) DeletePart(_ context.Context, id string) (models.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.parts, func(p models.Part) bool { return p.ID == oid })
	if i < 0 {
		return models.DeleteResult{Acknowledged: true}, nil
	}
	m.parts = append(m.parts[:i], m.parts[i+1:]...)
	return models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// ===== Bookings =====

func (m *MemoryStore) InsertBooking(_ context.Context, b *models.Booking) (models.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = primitive.NewObjectID()
	b.Paid = false
	b.TransactionID = ""
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	m.bookings = append(m.bookings, *b)
	return insertResult(b.ID), nil
}

func (m *MemoryStore) ListBookingsByBuyer(_ context.Context, buyer string) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Booking{}
	for _, b := range m.bookings {
		if b.Buyer == buyer {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := indexOf(m.bookings, func(b models.Booking) bool { return b.ID == oid })
	if i < 0 {
		return nil, nil
	}
	b := m.bookings[i]
	return &b, nil
}

func (m *MemoryStore) MarkBookingPaid(_ context.Context, id string, p *models.Payment) (models.UpdateResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.bookings, func(b models.Booking) bool { return b.ID == oid })
	if i < 0 {
		return models.UpdateResult{Acknowledged: true}, nil
	}
	j := indexOf(m.payments, func(x models.Payment) bool { return x.TransactionID == p.TransactionID })
	if j >= 0 && m.payments[j].BookingID != oid {
		return models.UpdateResult{}, ErrTransactionUsed
	}

	res := models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	b := &m.bookings[i]
	if !b.Paid || b.TransactionID != p.TransactionID {
		b.Paid = true
		b.TransactionID = p.TransactionID
		res.ModifiedCount = 1
	}
	if j >= 0 {
		return res, nil
	}
	p.ID = primitive.NewObjectID()
	p.BookingID = oid
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.payments = append(m.payments, *p)
	return res, nil
}

func (m *MemoryStore) DeleteBooking(_ context.Context, id string) (models.DeleteResult, error) {
	oid, err := ParseID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.bookings, func(b models.Booking) bool { return b.ID == oid })
	if i < 0 {
		return models.DeleteResult{Acknowledged: true}, nil
	}
	m.bookings = append(m.bookings[:i], m.bookings[i+1:]...)
	return models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (m *MemoryStore) ListPaymentsByBooking(_ context.Context, id string) ([]models.Payment, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if p.BookingID == oid {
			out = append(out, p)
		}
	}
	return out, nil
}

// ===== Users =====

func (m *MemoryStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.users), nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := indexOf(m.users, func(u models.User) bool { return u.Email == email })
	if i < 0 {
		return nil, nil
	}
	u := m.users[i]
	return &u, nil
}

func (m *MemoryStore) UpsertUser(_ context.Context, email string, upd models.UserUpdate) (models.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.users, func(u models.User) bool { return u.Email == email })
	if i < 0 {
		u := models.User{ID: primitive.NewObjectID(), Email: email}
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		m.users = append(m.users, u)
		return models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: u.ID.Hex()}, nil
	}
	res := models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if upd.Name != nil && m.users[i].Name != *upd.Name {
		m.users[i].Name = *upd.Name
		res.ModifiedCount = 1
	}
	return res, nil
}

func (m *MemoryStore) SetRole(_ context.Context, email, role string) (models.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.users, func(u models.User) bool { return u.Email == email })
	if i < 0 {
		return models.UpdateResult{Acknowledged: true}, nil
	}
	res := models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if m.users[i].Role != role {
		m.users[i].Role = role
		res.ModifiedCount = 1
	}
	return res, nil
}

// ===== Reviews & profiles =====

func (m *MemoryStore) InsertReview(_ context.Context, r *models.Review) (models.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = primitive.NewObjectID()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.reviews = append(m.reviews, *r)
	return insertResult(r.ID), nil
}

func (m *MemoryStore) ListReviews(context.Context) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.reviews), nil
}

func (m *MemoryStore) InsertProfile(_ context.Context, p *models.Profile) (models.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	m.profiles = append(m.profiles, *p)
	return insertResult(p.ID), nil
}

func (m *MemoryStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := indexOf(m.profiles, func(p models.Profile) bool { return p.ID == oid })
	if i < 0 {
		return nil, nil
	}
	p := m.profiles[i]
	return &p, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*MongoStore)(nil)
)
