package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/purrpal/purrpal/internal/api/middleware"
	"github.com/purrpal/purrpal/internal/api/response"
	"github.com/purrpal/purrpal/internal/store"
	"github.com/purrpal/purrpal/pkg/models"
)

const placeholderAvatar = "/main/home/placeholder-avatar.jpg"

// ContentStore is the community half of store.Store.
type ContentStore interface {
	ListStories(ctx context.Context) ([]*models.Story, error)
	CreateStory(ctx context.Context, story *models.Story) error
	ListModules(ctx context.Context) ([]*models.Module, error)
	GetModule(ctx context.Context, id string) (*models.Module, error)
	ListVeterinaryServices(ctx context.Context, filter store.VeterinaryFilter) ([]*models.VeterinaryService, error)
}

// ReverseGeocoder resolves coordinates to a place document.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// CommunityHandler serves stories, modules, veterinary services and geocoding.
type CommunityHandler struct {
	content  ContentStore
	geocoder ReverseGeocoder
}

func NewCommunityHandler(content ContentStore, geocoder ReverseGeocoder) *CommunityHandler {
	return &CommunityHandler{content: content, geocoder: geocoder}
}

type storyResponse struct {
	ID            uuid.UUID             `json:"id"`
	From          string                `json:"from"`
	Content       string                `json:"content"`
	Recipient     string                `json:"recipient"`
	Image         string                `json:"image"`
	ActivityImage *string               `json:"activityImage"`
	Location      *models.StoryLocation `json:"location"`
	CreatedAt     time.Time             `json:"created_at"`
}

func formatStory(s *models.Story) storyResponse {
	out := storyResponse{
		ID:            s.ID,
		From:          s.AuthorUsername,
		Content:       s.Content,
		Recipient:     s.Recipient,
		Image:         placeholderAvatar,
		ActivityImage: s.ActivityImageURL,
		CreatedAt:     s.CreatedAt,
	}
	if s.AuthorAvatarURL != nil && *s.AuthorAvatarURL != "" {
		out.Image = *s.AuthorAvatarURL
	}
	if s.LocationName != nil {
		loc := &models.StoryLocation{Name: *s.LocationName}
		if s.LocationAddress != nil {
			loc.Address = *s.LocationAddress
		}
		out.Location = loc
	}
	return out
}

// ListStories handles GET /api/stories.
func (h *CommunityHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.content.ListStories(r.Context())
	if err != nil {
		internalError(w, "Failed to fetch stories", err)
		return
	}
	out := make([]storyResponse, 0, len(stories))
	for _, s := range stories {
		out = append(out, formatStory(s))
	}
	response.JSON(w, out)
}

// CreateStory handles POST /api/stories.
func (h *CommunityHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required", nil)
		return
	}

	var req struct {
		Recipient        string                `json:"recipient"`
		Content          string                `json:"content"`
		Location         *models.StoryLocation `json:"location"`
		ActivityImageURL *string               `json:"activity_image_url"`
	}
	if !decode(w, r, &req) {
		return
	}
	req.Recipient = strings.TrimSpace(req.Recipient)
	req.Content = strings.TrimSpace(req.Content)
	if req.Recipient == "" || req.Content == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Recipient and content are required", nil)
		return
	}

	story := &models.Story{
		UserID:           userID,
		Recipient:        req.Recipient,
		Content:          req.Content,
		ActivityImageURL: req.ActivityImageURL,
	}
	if req.Location != nil && req.Location.Name != "" {
		story.LocationName = &req.Location.Name
		story.LocationAddress = &req.Location.Address
	}

	if err := h.content.CreateStory(r.Context(), story); err != nil {
		internalError(w, "Failed to create story", err)
		return
	}
	response.Created(w, formatStory(story))
}

// ListModules handles GET /api/modules.
func (h *CommunityHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.content.ListModules(r.Context())
	if err != nil {
		internalError(w, "Failed to fetch modules", err)
		return
	}
	if modules == nil {
		modules = []*models.Module{}
	}
	response.JSON(w, modules)
}

// GetModule handles GET /api/modules/{id}.
func (h *CommunityHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	module, err := h.content.GetModule(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Module not found", nil)
		return
	}
	if err != nil {
		internalError(w, "Failed to fetch module", err)
		return
	}
	response.JSON(w, module)
}

// ListVeterinary handles GET /api/veterinary.
func (h *CommunityHandler) ListVeterinary(w http.ResponseWriter, r *http.Request) {
	filter := store.VeterinaryFilter{City: strings.TrimSpace(r.URL.Query().Get("city"))}
	services, err := h.content.ListVeterinaryServices(r.Context(), filter)
	if err != nil {
		internalError(w, "Failed to fetch veterinary services", err)
		return
	}
	if services == nil {
		services = []*models.VeterinaryService{}
	}
	response.JSON(w, services)
}

// ReverseGeocode handles GET /api/location/reverse-geocode.
func (h *CommunityHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Latitude and longitude are required", nil)
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Latitude and longitude are out of range", nil)
		return
	}

	doc, err := h.geocoder.Reverse(r.Context(), lat, lon)
	if err != nil {
		slog.Error("reverse geocode failed", "lat", lat, "lon", lon, "error", err)
		response.Error(w, http.StatusInternalServerError, "GEOCODE_FAILED", "Failed to get location data", nil)
		return
	}
	response.JSON(w, doc)
}
