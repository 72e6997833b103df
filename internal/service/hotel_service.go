package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stayvista/stayvista-api/internal/domain"
	"github.com/stayvista/stayvista-api/internal/platform/assets"
	repo "github.com/stayvista/stayvista-api/internal/repo/mongo"
	"github.com/stayvista/stayvista-api/pkg/events"
	"github.com/stayvista/stayvista-api/pkg/logger"
)

// HotelService runs the hotel-write pipeline: validate, upload image payloads
// to the asset host, merge the returned URLs, commit the document. Ownership
// always comes from the authenticated caller, never from the submission.
type HotelService interface {
	Create(ctx context.Context, ownerID string, in *domain.HotelInput, images []domain.ImageFile) (*domain.Hotel, error)
	Update(ctx context.Context, id, ownerID string, in *domain.HotelInput, images []domain.ImageFile, retainedURLs []string) (*domain.Hotel, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Hotel, error)
	Get(ctx context.Context, id, ownerID string) (*domain.Hotel, error)
}

type hotelService struct {
	hotels    repo.HotelRepository
	uploader  assets.Uploader
	eventBus  events.Publisher
	maxImages int
}

func NewHotelService(hotels repo.HotelRepository, uploader assets.Uploader, eventBus events.Publisher, maxImages int) HotelService {
	return &hotelService{
		hotels:    hotels,
		uploader:  uploader,
		eventBus:  eventBus,
		maxImages: maxImages,
	}
}

func (s *hotelService) Create(ctx context.Context, ownerID string, in *domain.HotelInput, images []domain.ImageFile) (*domain.Hotel, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	urls, err := s.uploadAll(ctx, images)
	if err != nil {
		return nil, err
	}

	// A client that disconnected mid-upload must not end up with a record.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hotel := s.buildHotel(ownerID, in)
	hotel.ImageURLs = urls

	created, err := s.hotels.Insert(ctx, hotel)
	if err != nil {
		return nil, fmt.Errorf("failed to insert hotel: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.HotelCreated, events.HotelCreatedEvent{
		HotelID:    created.ID,
		OwnerID:    created.UserID,
		Name:       created.Name,
		City:       created.City,
		Country:    created.Country,
		ImageCount: len(created.ImageURLs),
		CreatedAt:  created.LastUpdated,
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish hotel.created", "error", err, "hotel_id", created.ID)
	}

	return created, nil
}

func (s *hotelService) Update(ctx context.Context, id, ownerID string, in *domain.HotelInput, images []domain.ImageFile, retainedURLs []string) (*domain.Hotel, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// Owner-scoped lookup before any upload: a request that cannot be
	// persisted must not spend upload quota.
	existing, err := s.hotels.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hotel: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	newURLs, err := s.uploadAll(ctx, images)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// New uploads lead, followed by the retained URLs in the client's order.
	// Retained URLs are intersected with what was actually persisted, so a
	// client cannot inject arbitrary strings into its image list.
	hotel := s.buildHotel(ownerID, in)
	hotel.ImageURLs = append(newURLs, intersect(retainedURLs, existing.ImageURLs)...)

	updated, err := s.hotels.UpdateByIDAndOwner(ctx, id, ownerID, hotel)
	if err != nil {
		return nil, fmt.Errorf("failed to update hotel: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.eventBus.Publish(ctx, events.HotelUpdated, events.HotelUpdatedEvent{
		HotelID:    updated.ID,
		OwnerID:    updated.UserID,
		ImageCount: len(updated.ImageURLs),
		UpdatedAt:  updated.LastUpdated,
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish hotel.updated", "error", err, "hotel_id", updated.ID)
	}

	return updated, nil
}

func (s *hotelService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Hotel, error) {
	return s.hotels.ListByOwner(ctx, ownerID)
}

func (s *hotelService) Get(ctx context.Context, id, ownerID string) (*domain.Hotel, error) {
	hotel, err := s.hotels.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, domain.ErrNotFound
	}
	return hotel, nil
}

func (s *hotelService) buildHotel(ownerID string, in *domain.HotelInput) *domain.Hotel {
	return &domain.Hotel{
		UserID:        ownerID,
		Name:          in.Name,
		City:          in.City,
		Country:       in.Country,
		Description:   in.Description,
		Type:          in.Type,
		PricePerNight: in.PricePerNight,
		StarRating:    in.StarRating,
		Facilities:    in.Facilities,
		AdultCount:    in.AdultCount,
		ChildCount:    in.ChildCount,
		ImageURLs:     []string{},
		LastUpdated:   time.Now().UTC(),
	}
}

// uploadAll pushes every payload to the asset host with bounded concurrency
// and gathers the URLs in submission order, not completion order. Any single
// failure fails the whole batch.
func (s *hotelService) uploadAll(ctx context.Context, images []domain.ImageFile) ([]string, error) {
	if len(images) > s.maxImages {
		return nil, &domain.UploadError{Err: domain.ErrTooManyImages}
	}

	urls := make([]string, len(images))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.maxImages, 1))
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			url, err := s.uploader.Upload(ctx, img)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var uploadErr *domain.UploadError
		if errors.As(err, &uploadErr) {
			return nil, err
		}
		return nil, &domain.UploadError{Err: err}
	}
	return urls, nil
}

// intersect keeps the elements of want that appear in have, preserving the
// order of want.
func intersect(want, have []string) []string {
	persisted := make(map[string]bool, len(have))
	for _, u := range have {
		persisted[u] = true
	}
	kept := make([]string, 0, len(want))
	for _, u := range want {
		if persisted[u] {
			kept = append(kept, u)
		}
	}
	return kept
}
