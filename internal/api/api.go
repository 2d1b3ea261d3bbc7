package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
	"github.com/AlexZx-05/Multiple-step-form/internal/metrics"
	"github.com/AlexZx-05/Multiple-step-form/internal/reference"
	"github.com/AlexZx-05/Multiple-step-form/internal/service"
	"github.com/AlexZx-05/Multiple-step-form/internal/storage"
)

// ProfileService is implemented by *service.UserService.
type ProfileService interface {
	CheckUsername(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error)
	UpsertProfile(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error)
	SubmitForm(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	ValidateSession(ctx context.Context, username, token string) error
	GetProfile(ctx context.Context, username string) (*entity.User, error)
}

// ReferenceData is implemented by *reference.Store.
type ReferenceData interface {
	Countries() []entity.ReferenceEntry
	States(country string) ([]entity.ReferenceEntry, error)
	Cities(state string) ([]entity.ReferenceEntry, error)
}

// PhotoStorage is implemented by *storage.PhotoStore.
type PhotoStorage interface {
	Save(originalName string, r io.Reader) (*storage.Photo, error)
	Remove(filename string) error
}

type UserHandler struct {
	users   ProfileService
	refs    ReferenceData
	photos  PhotoStorage
	metrics *metrics.Metrics
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(users ProfileService, refs ReferenceData, photos PhotoStorage, m *metrics.Metrics) *UserHandler {
	if m == nil {
		m = metrics.New(nil)
	}
	return &UserHandler{users: users, refs: refs, photos: photos, metrics: m}
}

// profileRequest is the JSON body of /users and /api/update-profile.
// passwordHash carries a plaintext password for older clients.
type profileRequest struct {
	entity.ProfileSubmission
	Password     string `json:"password"`
	PasswordHash string `json:"passwordHash"`
	ProfilePhoto string `json:"profilePhoto"`
}

func (r profileRequest) submission() entity.ProfileSubmission {
	sub := r.ProfileSubmission
	if sub.NewPassword == "" && sub.CurrentPassword == "" {
		sub.NewPassword = r.Password
		if sub.NewPassword == "" {
			sub.NewPassword = r.PasswordHash
		}
	}
	sub.ProfilePhoto = r.ProfilePhoto
	return sub
}

// CreateUser creates a new user --> /users
func (h *UserHandler) CreateUser(c echo.Context) error {
	req := profileRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	user, err := h.users.CreateUser(c.Request().Context(), req.submission())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(201, map[string]interface{}{"message": "User created successfully", "user": user})
}

// CheckUsername reports username availability --> /api/check-username
func (h *UserHandler) CheckUsername(c echo.Context) error {
	req := struct {
		Username string `json:"username"`
	}{}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return c.JSON(400, map[string]interface{}{"available": false, "message": "Username is required"})
	}

	available, err := h.users.CheckUsername(c.Request().Context(), req.Username)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(400, map[string]interface{}{"available": false, "message": "Username is required"})
		}
		return c.JSON(500, map[string]interface{}{"available": false, "message": "Server error"})
	}

	if !available {
		return c.JSON(200, map[string]interface{}{"available": false, "message": "Username is already taken"})
	}
	return c.JSON(200, map[string]interface{}{"available": true, "message": "Username is available"})
}

// ListCountries --> /api/countries
func (h *UserHandler) ListCountries(c echo.Context) error {
	return c.JSON(200, h.refs.Countries())
}

// ListStates --> /api/states?country=
func (h *UserHandler) ListStates(c echo.Context) error {
	country := c.QueryParam("country")
	if country == "" {
		return c.JSON(400, map[string]string{"error": "Country query param is required"})
	}
	states, err := h.refs.States(country)
	if err != nil {
		if errors.Is(err, reference.ErrNotFound) {
			return c.JSON(404, map[string]string{"error": "States not found for this country"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, states)
}

// ListCities --> /api/cities?state=
func (h *UserHandler) ListCities(c echo.Context) error {
	state := c.QueryParam("state")
	if state == "" {
		return c.JSON(400, map[string]string{"error": "State query param is required"})
	}
	cities, err := h.refs.Cities(state)
	if err != nil {
		if errors.Is(err, reference.ErrNotFound) {
			return c.JSON(404, map[string]string{"error": "Cities not found for this state"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, cities)
}

// UploadProfilePhoto stores a single image --> /api/upload-profile-photo
func (h *UserHandler) UploadProfilePhoto(c echo.Context) error {
	photo, err := h.savePhoto(c)
	if err != nil {
		return photoError(c, err)
	}
	if photo == nil {
		h.metrics.PhotoUploads.WithLabelValues("missing").Inc()
		return c.JSON(400, map[string]string{"error": "File upload failed"})
	}

	return c.JSON(200, map[string]string{
		"message":  "File uploaded successfully",
		"filename": photo.Filename,
		"path":     photo.Path,
	})
}

// UpdateProfile upserts a profile from JSON --> /api/update-profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	req := profileRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if strings.TrimSpace(req.Username) == "" {
		return c.JSON(400, map[string]string{"error": "Username is required"})
	}

	user, err := h.users.UpsertProfile(c.Request().Context(), req.submission())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(200, map[string]interface{}{"message": "User profile saved", "user": user})
}

// SubmitForm stores the whole multi-step form --> /api/submit-form
func (h *UserHandler) SubmitForm(c echo.Context) error {
	newsletter, _ := strconv.ParseBool(c.FormValue("newsletter"))
	sub := entity.ProfileSubmission{
		Username:         c.FormValue("username"),
		CurrentPassword:  c.FormValue("currentPassword"),
		NewPassword:      c.FormValue("newPassword"),
		Profession:       c.FormValue("profession"),
		CompanyName:      c.FormValue("companyName"),
		AddressLine1:     c.FormValue("addressLine1"),
		Country:          c.FormValue("country"),
		State:            c.FormValue("state"),
		City:             c.FormValue("city"),
		SubscriptionPlan: c.FormValue("subscriptionPlan"),
		Newsletter:       newsletter,
	}
	if strings.TrimSpace(sub.Username) == "" {
		return c.JSON(400, map[string]string{"error": "Username is required"})
	}

	photo, err := h.savePhoto(c)
	if err != nil {
		return photoError(c, err)
	}
	if photo != nil {
		sub.ProfilePhoto = photo.Path
	}

	user, err := h.users.SubmitForm(c.Request().Context(), sub)
	if err != nil {
		if photo != nil {
			if rmErr := h.photos.Remove(photo.Filename); rmErr != nil {
				logger.Warn().Err(rmErr).Msgf("Error removing unused photo %s", photo.Filename)
			}
		}
		return errorJSON(c, err)
	}

	return c.JSON(200, map[string]interface{}{"message": "Form submitted successfully", "user": user})
}

// Login issues a session token --> /api/login
func (h *UserHandler) Login(c echo.Context) error {
	login := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{}
	if err := c.Bind(&login); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	token, err := h.users.Login(c.Request().Context(), login.Username, login.Password)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(200, map[string]string{"token": token})
}

// GetProfile returns the caller's stored profile --> /api/profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}
	username, err := token.Claims.GetSubject()
	if err != nil || username == "" {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	if err := h.users.ValidateSession(ctx, username, token.Raw); err != nil {
		return errorJSON(c, err)
	}

	user, err := h.users.GetProfile(ctx, username)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, user)
}

// savePhoto stores the optional profilePhoto part. It returns nil, nil when
// the request carries no file.
func (h *UserHandler) savePhoto(c echo.Context) (*storage.Photo, error) {
	header, err := c.FormFile("profilePhoto")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	photo, err := h.photos.Save(header.Filename, file)
	if err != nil {
		h.metrics.PhotoUploads.WithLabelValues("rejected").Inc()
		return nil, err
	}
	h.metrics.PhotoUploads.WithLabelValues("stored").Inc()
	return photo, nil
}

func photoError(c echo.Context, err error) error {
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return c.JSON(400, map[string]string{"error": storage.ErrTooLarge.Error()})
	}
	switch {
	case errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrInvalidImage):
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	logger.Error().Err(err).Msg("Error storing profile photo")
	return c.JSON(400, map[string]string{"error": "File upload failed"})
}

// errorJSON maps service errors onto status codes.
func errorJSON(c echo.Context, err error) error {
	status := 500
	var sentinel error
	switch {
	case errors.Is(err, service.ErrValidation):
		status, sentinel = 400, service.ErrValidation
	case errors.Is(err, service.ErrConflict):
		status, sentinel = 400, service.ErrConflict
	case errors.Is(err, service.ErrNotFound):
		status, sentinel = 404, service.ErrNotFound
	case errors.Is(err, service.ErrUnauthorized):
		status, sentinel = 401, service.ErrUnauthorized
	}

	if status == 500 {
		logger.Error().Err(err).Msgf("%s %s failed", c.Request().Method, c.Path())
		return c.JSON(500, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(status, map[string]string{"error": strings.TrimPrefix(err.Error(), sentinel.Error()+": ")})
}
