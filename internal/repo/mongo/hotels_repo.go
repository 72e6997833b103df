package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stayvista/stayvista-api/internal/domain"
)

// HotelRepository persists hotel documents. Every read and write that names a
// hotel id also names the owner id, so a hotel owned by someone else looks
// exactly like a hotel that does not exist.
type HotelRepository interface {
	Insert(ctx context.Context, h *domain.Hotel) (*domain.Hotel, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Hotel, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Hotel, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, h *domain.Hotel) (*domain.Hotel, error)
}

type hotelRepository struct {
	col *mongo.Collection
}

func NewHotelRepository(db *mongo.Database) HotelRepository {
	return &hotelRepository{col: db.Collection("hotels")}
}

type hotelDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"user_id"`
	Name          string             `bson:"name"`
	City          string             `bson:"city"`
	Country       string             `bson:"country"`
	Description   string             `bson:"description"`
	Type          string             `bson:"type"`
	PricePerNight float64            `bson:"price_per_night"`
	StarRating    int                `bson:"star_rating,omitempty"`
	Facilities    []string           `bson:"facilities"`
	AdultCount    int                `bson:"adult_count"`
	ChildCount    int                `bson:"child_count"`
	ImageURLs     []string           `bson:"image_urls"`
	LastUpdated   time.Time          `bson:"last_updated"`
}

func fromDomain(h *domain.Hotel) *hotelDoc {
	return &hotelDoc{
		UserID:        h.UserID,
		Name:          h.Name,
		City:          h.City,
		Country:       h.Country,
		Description:   h.Description,
		Type:          h.Type,
		PricePerNight: h.PricePerNight,
		StarRating:    h.StarRating,
		Facilities:    h.Facilities,
		AdultCount:    h.AdultCount,
		ChildCount:    h.ChildCount,
		ImageURLs:     h.ImageURLs,
		LastUpdated:   h.LastUpdated,
	}
}

func (d *hotelDoc) toDomain() *domain.Hotel {
	return &domain.Hotel{
		ID:            d.ID.Hex(),
		UserID:        d.UserID,
		Name:          d.Name,
		City:          d.City,
		Country:       d.Country,
		Description:   d.Description,
		Type:          d.Type,
		PricePerNight: d.PricePerNight,
		StarRating:    d.StarRating,
		Facilities:    d.Facilities,
		AdultCount:    d.AdultCount,
		ChildCount:    d.ChildCount,
		ImageURLs:     d.ImageURLs,
		LastUpdated:   d.LastUpdated,
	}
}

func (r *hotelRepository) Insert(ctx context.Context, h *domain.Hotel) (*domain.Hotel, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	doc := fromDomain(h)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *hotelRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Hotel, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_updated", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var hotels []domain.Hotel
	for cur.Next(ctx) {
		var doc hotelDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		hotels = append(hotels, *doc.toDomain())
	}
	return hotels, cur.Err()
}

func (r *hotelRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Hotel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// a malformed id cannot match anything; keep it indistinguishable
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc hotelDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid, "user_id": ownerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *hotelRepository) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, h *domain.Hotel) (*domain.Hotel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":            h.Name,
		"city":            h.City,
		"country":         h.Country,
		"description":     h.Description,
		"type":            h.Type,
		"price_per_night": h.PricePerNight,
		"star_rating":     h.StarRating,
		"facilities":      h.Facilities,
		"adult_count":     h.AdultCount,
		"child_count":     h.ChildCount,
		"image_urls":      h.ImageURLs,
		"last_updated":    h.LastUpdated,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc hotelDoc
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid, "user_id": ownerID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}
