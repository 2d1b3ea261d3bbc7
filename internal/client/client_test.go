package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	cli, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return cli
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_NormalisesBaseURL(t *testing.T) {
	cli, err := New("localhost:3000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cli.baseURL)

	cli, err = New("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cli.baseURL)
}

func TestCheckUsername(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/check-username", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["username"] {
		case "":
			writeJSON(w, 400, map[string]any{"available": false, "message": "Username is required"})
		case "bob":
			writeJSON(w, 200, map[string]any{"available": false, "message": "Username is already taken"})
		default:
			writeJSON(w, 200, map[string]any{"available": true, "message": "Username is available"})
		}
	})
	cli := newTestClient(t, mux)
	ctx := context.Background()

	ok, err := cli.CheckUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cli.CheckUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = cli.CheckUsername(ctx, "")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Username is required", apiErr.Message)
}

func TestReferenceLists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/countries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []entity.ReferenceEntry{{Code: "IN", Name: "India"}})
	})
	mux.HandleFunc("/api/states", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("country") != "United States" {
			writeJSON(w, 404, map[string]string{"error": "States not found for this country"})
			return
		}
		writeJSON(w, 200, []entity.ReferenceEntry{{Code: "CA", Name: "California"}})
	})
	mux.HandleFunc("/api/cities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []entity.ReferenceEntry{{Code: "SF", Name: r.URL.Query().Get("state")}})
	})
	cli := newTestClient(t, mux)
	ctx := context.Background()

	countries, err := cli.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, "India", countries[0].Name)

	states, err := cli.States(ctx, "United States")
	require.NoError(t, err)
	assert.Equal(t, "California", states[0].Name)

	_, err = cli.States(ctx, "Atlantis")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "States not found for this country", apiErr.Error())

	cities, err := cli.Cities(ctx, "New York")
	require.NoError(t, err)
	assert.Equal(t, "New York", cities[0].Name)
}

func TestSubmitForm_SendsMultipartWithPhoto(t *testing.T) {
	photoPath := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(photoPath, []byte("png-bytes"), 0o644))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/submit-form", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "alice", r.FormValue("username"))
		assert.Equal(t, "employee", r.FormValue("profession"))
		assert.Equal(t, "Acme", r.FormValue("companyName"))
		assert.Equal(t, "true", r.FormValue("newsletter"))

		f, header, err := r.FormFile("profilePhoto")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "me.png", header.Filename)
		assert.Equal(t, "png-bytes", string(data))

		writeJSON(w, 200, map[string]any{
			"message": "Form submitted successfully",
			"user":    entity.User{ID: 7, Username: "alice", ProfilePhoto: "uploads/x.png"},
		})
	})
	cli := newTestClient(t, mux)

	user, err := cli.SubmitForm(context.Background(), entity.ProfileSubmission{
		Username: "alice", NewPassword: "pw", Profession: "employee", CompanyName: "Acme",
		Newsletter: true, ProfilePhoto: photoPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "uploads/x.png", user.ProfilePhoto)
}

func TestSubmitForm_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/submit-form", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, map[string]string{"error": "Company name is required for the selected profession."})
	})
	cli := newTestClient(t, mux)

	_, err := cli.SubmitForm(context.Background(), entity.ProfileSubmission{Username: "alice"})
	require.Error(t, err)
	assert.Equal(t, "Company name is required for the selected profession.", err.Error())
}

func TestSubmitForm_MissingLocalPhoto(t *testing.T) {
	cli, err := New("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = cli.SubmitForm(context.Background(), entity.ProfileSubmission{
		Username: "alice", ProfilePhoto: filepath.Join(t.TempDir(), "missing.png"),
	})
	assert.ErrorContains(t, err, "open photo")
}

func TestUploadPhoto(t *testing.T) {
	photoPath := filepath.Join(t.TempDir(), "me.jpg")
	require.NoError(t, os.WriteFile(photoPath, []byte("jpeg"), 0o644))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload-profile-photo", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("profilePhoto")
		require.NoError(t, err)
		assert.Equal(t, "me.jpg", header.Filename)
		writeJSON(w, 200, map[string]string{"message": "File uploaded successfully", "filename": "abc.jpg", "path": "uploads/abc.jpg"})
	})
	cli := newTestClient(t, mux)

	photo, err := cli.UploadPhoto(context.Background(), photoPath)
	require.NoError(t, err)
	assert.Equal(t, "uploads/abc.jpg", photo.Path)
}

func TestUpdateProfile_SendsPhotoPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/update-profile", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "uploads/abc.jpg", body["profilePhoto"])
		writeJSON(w, 200, map[string]any{"message": "User profile saved", "user": entity.User{ID: 1, Username: "alice"}})
	})
	cli := newTestClient(t, mux)

	user, err := cli.UpdateProfile(context.Background(), entity.ProfileSubmission{Username: "alice", ProfilePhoto: "uploads/abc.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestLoginAndProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, 401, map[string]string{"error": "Unauthorized"})
			return
		}
		writeJSON(w, 200, entity.User{ID: 1, Username: "alice"})
	})
	cli := newTestClient(t, mux)
	ctx := context.Background()

	token, err := cli.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	user, err := cli.Profile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = cli.Profile(ctx, "")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Status)
}
