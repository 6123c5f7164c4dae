package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/habedi/voxbridge/api"
	"github.com/stretchr/testify/require"
)

const (
	testIDToken = "kakao-id-token"
	testAccess  = "access-1"
	testRefresh = "refresh-1"
)

// backend is a small stand-in for the voxbridge server.
type backend struct {
	mu          sync.Mutex
	posts       []api.Post
	comments    map[string][]api.Comment
	uploads     []upload
	inWorkspace bool

	// audio is returned as the synthesized reply when set.
	audio string

	// profile is the last full profile sent by onboarding.
	profile *api.ProfileUpdate
}

type upload struct {
	Language       string
	ConversationID string
	Size           int
}

func reply(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "message": http.StatusText(status), "data": data})
}

func authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testAccess {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		next(w, r)
	}
}

func (b *backend) router(t *testing.T) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(api.KakaoLoginPath, func(w http.ResponseWriter, r *http.Request) {
		var in api.KakaoLoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.IDToken != testIDToken {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		reply(w, http.StatusOK, api.AuthResponse{AccessToken: testAccess, RefreshToken: testRefresh, User: api.AuthUser{UID: "u-1"}})
	}).Methods(http.MethodPost)

	r.HandleFunc(api.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.RefreshToken != testRefresh {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		reply(w, http.StatusOK, map[string]string{"access_token": testAccess})
	}).Methods(http.MethodPost)

	r.HandleFunc(api.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, api.HealthResponse{Message: "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc(api.ProfilePath, authorized(func(w http.ResponseWriter, r *http.Request) {
		p := api.UserProfile{ID: "u-1", Name: "Nguyen", BirthYear: 1995, Nationality: "VN", CurrentCity: "Ansan", MainLanguage: "vi-VN"}
		if r.Method == http.MethodPut {
			var in api.ProfileUpdate
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			b.mu.Lock()
			b.profile = &in
			b.mu.Unlock()
			p = api.UserProfile{ID: "u-1", Name: in.Name, BirthYear: in.BirthYear, Nationality: in.Nationality, CurrentCity: in.CurrentCity, MainLanguage: in.MainLanguage}
		}
		if r.Method == http.MethodPatch {
			var patch map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			if city, ok := patch["currentCity"].(string); ok {
				p.CurrentCity = city
			}
		}
		reply(w, http.StatusOK, p)
	})).Methods(http.MethodGet, http.MethodPut, http.MethodPatch)

	r.HandleFunc(api.OnboardingStatusPath, authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.profile != nil)
	})).Methods(http.MethodGet)

	r.HandleFunc(api.WorkspaceStatusPath, authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.inWorkspace)
	})).Methods(http.MethodGet)

	r.HandleFunc(api.PostsPath, authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodPost {
			var in api.CreatePostRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			p := api.Post{ID: fmt.Sprintf("p%d", len(b.posts)+1), Title: in.Title, Content: in.Content, Language: in.Language}
			b.posts = append(b.posts, p)
			reply(w, http.StatusCreated, p)
			return
		}
		reply(w, http.StatusOK, b.posts)
	})).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc(api.PostsPath+"/{id}/comments", authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.comments[mux.Vars(r)["id"]])
	})).Methods(http.MethodGet)

	r.HandleFunc(api.PostsPath+"/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, p := range b.posts {
			if p.ID == id {
				reply(w, http.StatusOK, p)
				return
			}
		}
		reply(w, http.StatusNotFound, nil)
	})).Methods(http.MethodGet)

	r.HandleFunc(api.WorkspacesPath, authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []api.Workspace{{ID: "w1", Name: "Factory", InviteCode: "JOIN-ME", Members: []string{"u-1", "u-2"}}})
	})).Methods(http.MethodGet)

	r.HandleFunc(api.ConversationPath, authorized(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("audio")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		b.mu.Lock()
		b.uploads = append(b.uploads, upload{
			Language:       r.FormValue("selectedForeignLanguage"),
			ConversationID: r.FormValue("conversationId"),
			Size:           len(data),
		})
		n := len(b.uploads)
		audio := b.audio
		b.mu.Unlock()

		convID := r.FormValue("conversationId")
		if convID == "" {
			convID = "conv-1"
		}
		reply(w, http.StatusOK, api.ConversationResponse{
			ConversationID: convID,
			Message: api.ConversationMessage{
				ID:                 fmt.Sprintf("m%d", n),
				Timestamp:          "2026-10-17T09:00:00Z",
				OriginalText:       "안녕하세요",
				OriginalLanguage:   "ko-KR",
				TranslatedText:     "Xin chào",
				TranslatedLanguage: r.FormValue("selectedForeignLanguage"),
				AudioData:          audio,
			},
		})
	})).Methods(http.MethodPost)

	return r
}

func (b *backend) savedProfile() *api.ProfileUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile
}

func (b *backend) recorded() []upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]upload(nil), b.uploads...)
}

// env points the CLI at a fresh home directory, database and backend.
type env struct {
	dir     string
	backend *backend
	server  *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	b := &backend{comments: map[string][]api.Comment{}}
	srv := httptest.NewServer(b.router(t))
	t.Cleanup(srv.Close)

	cfg := fmt.Sprintf("db_path: %s\nrecordings_dir: %s\nlanguage: vi-VN\nmax_seconds: 30\nworkers: 2\n",
		filepath.Join(dir, "voxbridge.db"), filepath.Join(dir, "recordings"))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	t.Setenv("VOXBRIDGE_CONFIG", cfgPath)
	t.Setenv("VOXBRIDGE_API_BASE_URL", srv.URL)
	t.Setenv("VOXBRIDGE_DB_PATH", "")
	return &env{dir: dir, backend: b, server: srv}
}

// run executes one CLI invocation with stdin and returns everything printed.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := newCLI()
	root := c.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	require.NoError(t, c.close())
	return out.String(), classify(err)
}

func (e *env) login(t *testing.T) {
	t.Helper()
	_, err := e.run(t, "", "login", "--id-token", testIDToken)
	require.NoError(t, err)
}
