package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stayvista/stayvista-api/internal/domain"
	mw "github.com/stayvista/stayvista-api/internal/http/middleware"
	"github.com/stayvista/stayvista-api/internal/http/response"
	"github.com/stayvista/stayvista-api/internal/service"
	"github.com/stayvista/stayvista-api/pkg/logger"
)

const multipartMemoryLimit = 32 << 20

type HotelsHandler struct {
	Hotels        service.HotelService
	MaxImages     int
	MaxImageBytes int64
}

func NewHotelsHandler(hotels service.HotelService, maxImages int, maxImageBytes int64) *HotelsHandler {
	return &HotelsHandler{Hotels: hotels, MaxImages: maxImages, MaxImageBytes: maxImageBytes}
}

// Routes returns the hotel routes. The caller mounts them behind the auth
// gate; every handler here assumes an owner identity is already bound.
func (h *HotelsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	return r
}

func (h *HotelsHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}

	images, err := h.collectImages(r)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}

	in := parseHotelForm(r)
	hotel, err := h.Hotels.Create(r.Context(), mw.OwnerID(r), in, images)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, hotel)
}

func (h *HotelsHandler) list(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Hotels.ListByOwner(r.Context(), mw.OwnerID(r))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list hotels", "error", err)
		response.InternalError(w, "error fetching hotels")
		return
	}
	if hotels == nil {
		hotels = []domain.Hotel{}
	}
	response.WriteJSON(w, http.StatusOK, hotels)
}

func (h *HotelsHandler) getByID(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Hotels.Get(r.Context(), chi.URLParam(r, "id"), mw.OwnerID(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "hotel not found")
			return
		}
		logger.ErrorContext(r.Context(), "failed to fetch hotel", "error", err)
		response.InternalError(w, "error fetching hotel")
		return
	}
	response.WriteJSON(w, http.StatusOK, hotel)
}

func (h *HotelsHandler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}

	images, err := h.collectImages(r)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}

	in := parseHotelForm(r)
	retained := r.MultipartForm.Value["imageUrls"]

	hotel, err := h.Hotels.Update(r.Context(), chi.URLParam(r, "id"), mw.OwnerID(r), in, images, retained)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, hotel)
}

// parseHotelForm maps the multipart fields into an explicit input struct.
// Unparsable numbers become zero values and fall out of HotelInput.Validate
// with every other violation, so the client sees the full list at once.
func parseHotelForm(r *http.Request) *domain.HotelInput {
	price, _ := strconv.ParseFloat(r.FormValue("pricePerNight"), 64)
	stars, _ := strconv.Atoi(r.FormValue("starRating"))
	adults, _ := strconv.Atoi(r.FormValue("adultCount"))
	children, _ := strconv.Atoi(r.FormValue("childCount"))

	return &domain.HotelInput{
		Name:          r.FormValue("name"),
		City:          r.FormValue("city"),
		Country:       r.FormValue("country"),
		Description:   r.FormValue("description"),
		Type:          r.FormValue("type"),
		PricePerNight: price,
		StarRating:    stars,
		Facilities:    r.MultipartForm.Value["facilities"],
		AdultCount:    adults,
		ChildCount:    children,
	}
}

// collectImages buffers the image parts, enforcing the per-submission count
// cap and the per-payload size cap before anything touches the network.
func (h *HotelsHandler) collectImages(r *http.Request) ([]domain.ImageFile, error) {
	fhs := r.MultipartForm.File["imageFiles"]
	if len(fhs) > h.MaxImages {
		return nil, &domain.UploadError{Err: domain.ErrTooManyImages}
	}

	images := make([]domain.ImageFile, 0, len(fhs))
	for _, fh := range fhs {
		if fh.Size > h.MaxImageBytes {
			return nil, &domain.UploadError{Err: domain.ErrImageTooLarge}
		}
		f, err := fh.Open()
		if err != nil {
			return nil, &domain.UploadError{Err: err}
		}
		data, err := io.ReadAll(io.LimitReader(f, h.MaxImageBytes+1))
		f.Close()
		if err != nil {
			return nil, &domain.UploadError{Err: err}
		}
		if int64(len(data)) > h.MaxImageBytes {
			return nil, &domain.UploadError{Err: domain.ErrImageTooLarge}
		}
		images = append(images, domain.ImageFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}

func (h *HotelsHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	var uErr *domain.UploadError
	switch {
	case errors.As(err, &vErr):
		response.WriteValidation(w, vErr)
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "hotel not found")
	case errors.As(err, &uErr):
		h.writeUploadError(w, r, err)
	default:
		logger.ErrorContext(r.Context(), "hotel write failed", "error", err)
		response.InternalError(w, "something went wrong")
	}
}

func (h *HotelsHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrTooManyImages):
		response.WriteError(w, http.StatusBadRequest, "too many images, maximum is "+strconv.Itoa(h.MaxImages), response.CodeInvalidInput)
	case errors.Is(err, domain.ErrImageTooLarge):
		response.WriteError(w, http.StatusBadRequest, "image exceeds maximum size", response.CodeInvalidInput)
	default:
		// true cause stays in the server log, client gets an opaque 500
		logger.ErrorContext(r.Context(), "image upload failed", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "image upload failed", response.CodeUploadFailed)
	}
}
