package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stayvista/stayvista-api/internal/domain"
	"github.com/stayvista/stayvista-api/internal/service"
	"github.com/stayvista/stayvista-api/pkg/events"
)

// ---------- Mocks ----------

type mockHotelRepo struct {
	mu      sync.Mutex
	nextID  int
	hotels  map[string]*domain.Hotel
	inserts int
	updates int
}

func newMockHotelRepo() *mockHotelRepo {
	return &mockHotelRepo{nextID: 1, hotels: make(map[string]*domain.Hotel)}
}

func (m *mockHotelRepo) Insert(_ context.Context, h *domain.Hotel) (*domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	stored := *h
	stored.ID = fmt.Sprintf("hotel-%d", m.nextID)
	m.nextID++
	m.hotels[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *mockHotelRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Hotel
	for _, h := range m.hotels {
		if h.UserID == ownerID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *mockHotelRepo) FindByIDAndOwner(_ context.Context, id, ownerID string) (*domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hotels[id]
	if !ok || h.UserID != ownerID {
		return nil, nil
	}
	out := *h
	return &out, nil
}

func (m *mockHotelRepo) UpdateByIDAndOwner(_ context.Context, id, ownerID string, h *domain.Hotel) (*domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.hotels[id]
	if !ok || existing.UserID != ownerID {
		return nil, nil
	}
	m.updates++
	stored := *h
	stored.ID = id
	stored.UserID = ownerID
	m.hotels[id] = &stored
	out := stored
	return &out, nil
}

// mockUploader returns deterministic URLs and can simulate per-image latency
// or a failure on a chosen image index.
type mockUploader struct {
	mu       sync.Mutex
	calls    int
	delayFor func(name string) time.Duration
	failOn   string
}

func (m *mockUploader) Upload(ctx context.Context, img domain.ImageFile) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delayFor != nil {
		select {
		case <-time.After(m.delayFor(img.Name)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.failOn != "" && img.Name == m.failOn {
		return "", &domain.UploadError{Err: errors.New("asset host rejected " + img.Name)}
	}
	return "https://assets.test/" + img.Name, nil
}

func (m *mockUploader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func validInput() *domain.HotelInput {
	return &domain.HotelInput{
		Name:          "T",
		City:          "C",
		Country:       "C",
		Description:   "d",
		Type:          "Budget",
		PricePerNight: 100,
		Facilities:    []string{"wifi"},
		AdultCount:    2,
		ChildCount:    0,
	}
}

func imageSet(names ...string) []domain.ImageFile {
	imgs := make([]domain.ImageFile, 0, len(names))
	for _, n := range names {
		imgs = append(imgs, domain.ImageFile{Name: n, ContentType: "image/png", Data: []byte{0x89, 0x50}})
	}
	return imgs
}

// ---------- Create ----------

func TestCreateValidationListsEveryViolation(t *testing.T) {
	repo := newMockHotelRepo()
	up := &mockUploader{}
	svc := service.NewHotelService(repo, up, events.NoopPublisher{}, 6)

	_, err := svc.Create(context.Background(), "owner-1", &domain.HotelInput{}, nil)

	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got := make(map[string]bool)
	for _, f := range vErr.Violations {
		got[f.Field] = true
	}
	for _, field := range []string{"name", "city", "country", "description", "type", "pricePerNight", "facilities", "adultCount"} {
		if !got[field] {
			t.Errorf("missing violation for field %q (got %v)", field, vErr.Violations)
		}
	}
	if repo.inserts != 0 {
		t.Errorf("repository written despite validation failure (%d inserts)", repo.inserts)
	}
	if up.callCount() != 0 {
		t.Errorf("uploads attempted despite validation failure (%d calls)", up.callCount())
	}
}

func TestCreatePreservesSubmissionOrderOfImages(t *testing.T) {
	repo := newMockHotelRepo()
	// Latency inversely correlated with submission order: the first image
	// finishes last, so completion order is the reverse of submission order.
	delays := map[string]time.Duration{
		"a.png": 40 * time.Millisecond,
		"b.png": 30 * time.Millisecond,
		"c.png": 20 * time.Millisecond,
		"d.png": 10 * time.Millisecond,
	}
	up := &mockUploader{delayFor: func(name string) time.Duration { return delays[name] }}
	svc := service.NewHotelService(repo, up, events.NoopPublisher{}, 6)

	hotel, err := svc.Create(context.Background(), "owner-1", validInput(), imageSet("a.png", "b.png", "c.png", "d.png"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []string{
		"https://assets.test/a.png",
		"https://assets.test/b.png",
		"https://assets.test/c.png",
		"https://assets.test/d.png",
	}
	if len(hotel.ImageURLs) != len(want) {
		t.Fatalf("got %d image urls, want %d", len(hotel.ImageURLs), len(want))
	}
	for i := range want {
		if hotel.ImageURLs[i] != want[i] {
			t.Errorf("ImageURLs[%d] = %q, want %q", i, hotel.ImageURLs[i], want[i])
		}
	}
}

func TestCreateAssignsOwnerFromCaller(t *testing.T) {
	repo := newMockHotelRepo()
	svc := service.NewHotelService(repo, &mockUploader{}, events.NoopPublisher{}, 6)

	hotel, err := svc.Create(context.Background(), "caller-7", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if hotel.UserID != "caller-7" {
		t.Errorf("UserID = %q, want the authenticated caller", hotel.UserID)
	}
	if hotel.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}
	if hotel.ImageURLs == nil || len(hotel.ImageURLs) != 0 {
		t.Errorf("ImageURLs = %v, want empty list", hotel.ImageURLs)
	}
}

func TestCreateSingleUploadFailureAbortsWholeSubmission(t *testing.T) {
	repo := newMockHotelRepo()
	up := &mockUploader{failOn: "b.png"}
	svc := service.NewHotelService(repo, up, events.NoopPublisher{}, 6)

	_, err := svc.Create(context.Background(), "owner-1", validInput(), imageSet("a.png", "b.png", "c.png"))

	var uErr *domain.UploadError
	if !errors.As(err, &uErr) {
		t.Fatalf("expected UploadError, got %v", err)
	}
	if repo.inserts != 0 {
		t.Errorf("record persisted despite upload failure (%d inserts)", repo.inserts)
	}
}

func TestCreateRejectsTooManyImages(t *testing.T) {
	repo := newMockHotelRepo()
	up := &mockUploader{}
	svc := service.NewHotelService(repo, up, events.NoopPublisher{}, 2)

	_, err := svc.Create(context.Background(), "owner-1", validInput(), imageSet("a.png", "b.png", "c.png"))
	if !errors.Is(err, domain.ErrTooManyImages) {
		t.Fatalf("expected ErrTooManyImages, got %v", err)
	}
	if up.callCount() != 0 {
		t.Errorf("uploads attempted despite count violation (%d calls)", up.callCount())
	}
	if repo.inserts != 0 {
		t.Errorf("record persisted despite count violation (%d inserts)", repo.inserts)
	}
}

func TestCreateCanceledRequestNeverCommits(t *testing.T) {
	repo := newMockHotelRepo()
	up := &mockUploader{delayFor: func(string) time.Duration { return 50 * time.Millisecond }}
	svc := service.NewHotelService(repo, up, events.NoopPublisher{}, 6)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Create(ctx, "owner-1", validInput(), imageSet("a.png", "b.png"))
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if repo.inserts != 0 {
		t.Errorf("record persisted despite disconnect (%d inserts)", repo.inserts)
	}
}

// ---------- Update ----------

func seedHotel(t *testing.T, repo *mockHotelRepo, ownerID string, urls []string) *domain.Hotel {
	t.Helper()
	h := &domain.Hotel{
		UserID:        ownerID,
		Name:          "Old Name",
		City:          "Old City",
		Country:       "Old Country",
		Description:   "old",
		Type:          "Budget",
		PricePerNight: 50,
		Facilities:    []string{"wifi"},
		AdultCount:    2,
		ImageURLs:     urls,
		LastUpdated:   time.Now().Add(-time.Hour),
	}
	created, err := repo.Insert(context.Background(), h)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return created
}

func TestUpdateImageListNewUploadsFirstThenRetained(t *testing.T) {
	repo := newMockHotelRepo()
	up := &mockUploader{}
	svc := service.NewHotelService(repo, up, events.NoopPublisher{}, 6)

	existing := seedHotel(t, repo, "owner-1", []string{"https://assets.test/e1", "https://assets.test/e2", "https://assets.test/e3"})

	retained := []string{"https://assets.test/e3", "https://assets.test/e1"}
	updated, err := svc.Update(context.Background(), existing.ID, "owner-1", validInput(), imageSet("n1.png", "n2.png"), retained)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []string{
		"https://assets.test/n1.png",
		"https://assets.test/n2.png",
		"https://assets.test/e3",
		"https://assets.test/e1",
	}
	if len(updated.ImageURLs) != len(want) {
		t.Fatalf("got %d image urls %v, want %d", len(updated.ImageURLs), updated.ImageURLs, len(want))
	}
	for i := range want {
		if updated.ImageURLs[i] != want[i] {
			t.Errorf("ImageURLs[%d] = %q, want %q", i, updated.ImageURLs[i], want[i])
		}
	}
}

func TestUpdateFiltersInjectedRetainedURLs(t *testing.T) {
	repo := newMockHotelRepo()
	svc := service.NewHotelService(repo, &mockUploader{}, events.NoopPublisher{}, 6)

	existing := seedHotel(t, repo, "owner-1", []string{"https://assets.test/e1"})

	retained := []string{"https://evil.example/injected", "https://assets.test/e1"}
	updated, err := svc.Update(context.Background(), existing.ID, "owner-1", validInput(), nil, retained)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.ImageURLs) != 1 || updated.ImageURLs[0] != "https://assets.test/e1" {
		t.Errorf("ImageURLs = %v, want only the previously persisted URL", updated.ImageURLs)
	}
}

func TestUpdateNotOwnedLooksLikeNotFound(t *testing.T) {
	repo := newMockHotelRepo()
	up := &mockUploader{}
	svc := service.NewHotelService(repo, up, events.NoopPublisher{}, 6)

	existing := seedHotel(t, repo, "owner-1", nil)

	_, errOther := svc.Update(context.Background(), existing.ID, "owner-2", validInput(), imageSet("n.png"), nil)
	_, errMissing := svc.Update(context.Background(), "no-such-id", "owner-2", validInput(), imageSet("n.png"), nil)

	if !errors.Is(errOther, domain.ErrNotFound) {
		t.Errorf("someone else's hotel: got %v, want ErrNotFound", errOther)
	}
	if !errors.Is(errMissing, domain.ErrNotFound) {
		t.Errorf("nonexistent hotel: got %v, want ErrNotFound", errMissing)
	}
	if !errors.Is(errOther, errMissing) && errOther.Error() != errMissing.Error() {
		t.Errorf("ownership failure distinguishable from missing id: %v vs %v", errOther, errMissing)
	}
	if up.callCount() != 0 {
		t.Errorf("uploads attempted for an unpersistable request (%d calls)", up.callCount())
	}
	if repo.updates != 0 {
		t.Errorf("repository mutated (%d updates)", repo.updates)
	}
}

func TestGetScopedByOwner(t *testing.T) {
	repo := newMockHotelRepo()
	svc := service.NewHotelService(repo, &mockUploader{}, events.NoopPublisher{}, 6)

	existing := seedHotel(t, repo, "owner-1", nil)

	if _, err := svc.Get(context.Background(), existing.ID, "owner-1"); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), existing.ID, "owner-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign read: got %v, want ErrNotFound", err)
	}
}
