// Package client is a typed HTTP client for the profile API, used by the
// terminal form.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:3000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError is a non-2xx response. Message is the server's error text.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return e.Message
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, reader, contentType, token, v)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType, token string, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractError reads the "error" field, or "message" for the username check.
func extractError(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Error != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(payload.Message)
}

type userEnvelope struct {
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
}

// Photo is a stored upload.
type Photo struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// CheckUsername reports whether username is free.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	var resp struct {
		Available bool   `json:"available"`
		Message   string `json:"message"`
	}
	body := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodPost, "/api/check-username", body, "", &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

func (c *Client) Countries(ctx context.Context) ([]entity.ReferenceEntry, error) {
	var out []entity.ReferenceEntry
	if err := c.do(ctx, http.MethodGet, "/api/countries", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) States(ctx context.Context, country string) ([]entity.ReferenceEntry, error) {
	var out []entity.ReferenceEntry
	path := "/api/states?country=" + url.QueryEscape(country)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Cities(ctx context.Context, state string) ([]entity.ReferenceEntry, error) {
	var out []entity.ReferenceEntry
	path := "/api/cities?state=" + url.QueryEscape(state)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadPhoto sends the image at the local path on its own.
func (c *Client) UploadPhoto(ctx context.Context, path string) (*Photo, error) {
	body, contentType, err := multipartBody(nil, path)
	if err != nil {
		return nil, err
	}
	var photo Photo
	if err := c.send(ctx, http.MethodPost, "/api/upload-profile-photo", body, contentType, "", &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

// CreateUser registers a new profile; an existing username is an error.
func (c *Client) CreateUser(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error) {
	var resp userEnvelope
	if err := c.do(ctx, http.MethodPost, "/users", profileBody(sub), "", &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UpdateProfile upserts through the JSON endpoint. sub.ProfilePhoto must be
// a path returned by UploadPhoto.
func (c *Client) UpdateProfile(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error) {
	var resp userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/update-profile", profileBody(sub), "", &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// SubmitForm sends the whole form as multipart. sub.ProfilePhoto, when set,
// is a local file attached as profilePhoto.
func (c *Client) SubmitForm(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error) {
	fields := map[string]string{
		entity.FieldUsername:         sub.Username,
		entity.FieldCurrentPassword:  sub.CurrentPassword,
		entity.FieldNewPassword:      sub.NewPassword,
		entity.FieldProfession:       sub.Profession,
		entity.FieldCompanyName:      sub.CompanyName,
		entity.FieldAddressLine1:     sub.AddressLine1,
		entity.FieldCountry:          sub.Country,
		entity.FieldState:            sub.State,
		entity.FieldCity:             sub.City,
		entity.FieldSubscriptionPlan: sub.SubscriptionPlan,
		"newsletter":                 strconv.FormatBool(sub.Newsletter),
	}
	body, contentType, err := multipartBody(fields, sub.ProfilePhoto)
	if err != nil {
		return nil, err
	}
	var resp userEnvelope
	if err := c.send(ctx, http.MethodPost, "/api/submit-form", body, contentType, "", &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, "", &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Profile fetches the profile owning token.
func (c *Client) Profile(ctx context.Context, token string) (*entity.User, error) {
	var user entity.User
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func profileBody(sub entity.ProfileSubmission) any {
	return struct {
		entity.ProfileSubmission
		ProfilePhoto string `json:"profilePhoto,omitempty"`
	}{sub, sub.ProfilePhoto}
}

func multipartBody(fields map[string]string, photoPath string) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if photoPath != "" {
		f, err := os.Open(photoPath)
		if err != nil {
			return nil, "", fmt.Errorf("open photo: %w", err)
		}
		defer f.Close()
		part, err := w.CreateFormFile("profilePhoto", filepath.Base(photoPath))
		if err != nil {
			return nil, "", fmt.Errorf("create photo part: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("copy photo: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
