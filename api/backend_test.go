package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/habedi/voxbridge/api"
	"github.com/habedi/voxbridge/client"
	"github.com/habedi/voxbridge/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeBackend mimics the voxbridge backend. It accepts exactly one valid
// access token at a time; rotate() invalidates it.
type fakeBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	issued       int
	refreshCalls atomic.Int32
	uploads      []map[string]string
	posts        []api.Post
	comments     map[string][]api.Comment
	workspaces   map[string]api.Workspace
	fullProfile  *api.ProfileUpdate
	joined       bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		validRefresh: "refresh-1",
		comments:     map[string][]api.Comment{},
		workspaces:   map[string]api.Workspace{},
	}
}

func (b *fakeBackend) rotate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = "revoked"
}

func (b *fakeBackend) nextAccess() string {
	b.issued++
	b.validAccess = "access-" + string(rune('0'+b.issued))
	return b.validAccess
}

func reply(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "message": http.StatusText(status), "data": data})
}

func (b *fakeBackend) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		ok := b.validAccess != "" && r.Header.Get("Authorization") == "Bearer "+b.validAccess
		b.mu.Unlock()
		if !ok {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		next(w, r)
	}
}

func (b *fakeBackend) router(t *testing.T) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(api.KakaoLoginPath, func(w http.ResponseWriter, r *http.Request) {
		var in api.KakaoLoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.IDToken != "kakao-id-token" {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		b.mu.Lock()
		access := b.nextAccess()
		b.mu.Unlock()
		reply(w, http.StatusOK, api.AuthResponse{AccessToken: access, RefreshToken: b.validRefresh, User: api.AuthUser{UID: "u-1"}})
	}).Methods(http.MethodPost)

	r.HandleFunc(api.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		var in struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		defer b.mu.Unlock()
		if in.RefreshToken != b.validRefresh {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		reply(w, http.StatusOK, map[string]string{"access_token": b.nextAccess()})
	}).Methods(http.MethodPost)

	r.HandleFunc(api.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, api.HealthResponse{Message: "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc(api.ProfilePath, b.authorized(func(w http.ResponseWriter, r *http.Request) {
		p := api.UserProfile{ID: "u-1", Name: "Nguyen", BirthYear: 1995, Nationality: "VN", CurrentCity: "Ansan", MainLanguage: "vi-VN"}
		if r.Method == http.MethodPut {
			var in api.ProfileUpdate
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			b.mu.Lock()
			b.fullProfile = &in
			b.mu.Unlock()
			reply(w, http.StatusOK, api.UserProfile{ID: "u-1", Name: in.Name, BirthYear: in.BirthYear, Nationality: in.Nationality, CurrentCity: in.CurrentCity, MainLanguage: in.MainLanguage})
			return
		}
		if r.Method != http.MethodGet {
			var patch map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			if city, ok := patch["currentCity"].(string); ok {
				p.CurrentCity = city
			}
		}
		reply(w, http.StatusOK, p)
	})).Methods(http.MethodGet, http.MethodPut, http.MethodPatch)

	r.HandleFunc(api.OnboardingStatusPath, b.authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, true)
	})).Methods(http.MethodGet)

	r.HandleFunc(api.WorkspaceStatusPath, b.authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.joined)
	})).Methods(http.MethodGet)

	r.HandleFunc(api.PostsPath, b.authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodPost {
			var in api.CreatePostRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			p := api.Post{ID: "p" + string(rune('0'+len(b.posts)+1)), Title: in.Title, Content: in.Content, Language: in.Language}
			b.posts = append(b.posts, p)
			reply(w, http.StatusCreated, p)
			return
		}
		reply(w, http.StatusOK, b.posts)
	})).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc(api.PostsPath+"/{id}/comments", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodPost {
			var in api.CreateCommentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			c := api.Comment{ID: "c-" + id, Content: in.Content, PostID: id}
			b.comments[id] = append(b.comments[id], c)
			reply(w, http.StatusCreated, c)
			return
		}
		reply(w, http.StatusOK, b.comments[id])
	})).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc(api.PostsPath+"/{id}", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, p := range b.posts {
			if p.ID == id {
				if r.Method == http.MethodDelete {
					b.posts = append(b.posts[:i], b.posts[i+1:]...)
					reply(w, http.StatusOK, nil)
					return
				}
				reply(w, http.StatusOK, p)
				return
			}
		}
		reply(w, http.StatusNotFound, nil)
	})).Methods(http.MethodGet, http.MethodDelete)

	r.HandleFunc(api.WorkspaceJoinPath, b.authorized(func(w http.ResponseWriter, r *http.Request) {
		var in api.JoinWorkspaceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, ws := range b.workspaces {
			if ws.InviteCode == in.Code {
				b.joined = true
				ws.Members = append(ws.Members, "u-1")
				reply(w, http.StatusOK, ws)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid invite code","data":null}`))
	})).Methods(http.MethodPost)

	r.HandleFunc(api.WorkspacesPath, b.authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodPost {
			var in api.CreateWorkspaceRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			ws := api.Workspace{ID: "w1", Name: in.Name, Description: in.Description, OwnerID: "u-1", InviteCode: "JOIN-ME"}
			b.workspaces[ws.ID] = ws
			reply(w, http.StatusCreated, ws)
			return
		}
		list := make([]api.Workspace, 0, len(b.workspaces))
		for _, ws := range b.workspaces {
			list = append(list, ws)
		}
		reply(w, http.StatusOK, list)
	})).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc(api.ConversationPath, b.authorized(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		file.Close()
		b.mu.Lock()
		b.uploads = append(b.uploads, map[string]string{
			"filename":       header.Filename,
			"content_type":   header.Header.Get("Content-Type"),
			"language":       r.FormValue("selectedForeignLanguage"),
			"conversationId": r.FormValue("conversationId"),
		})
		b.mu.Unlock()
		convID := r.FormValue("conversationId")
		if convID == "" {
			convID = "conv-1"
		}
		reply(w, http.StatusOK, api.ConversationResponse{
			ConversationID: convID,
			Message: api.ConversationMessage{
				ID:                 "m-1",
				Timestamp:          "2026-10-17T09:00:00Z",
				OriginalText:       "안녕하세요",
				OriginalLanguage:   "ko-KR",
				TranslatedText:     "Xin chào",
				TranslatedLanguage: r.FormValue("selectedForeignLanguage"),
			},
		})
	})).Methods(http.MethodPost)

	return r
}

// setup starts the backend and returns services backed by a sqlite token store.
func setup(t *testing.T) (*fakeBackend, *api.API, *db.TokenStore) {
	t.Helper()
	backend := newFakeBackend()
	server := httptest.NewServer(backend.router(t))
	t.Cleanup(server.Close)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	store := db.NewTokenStore(db.NewKVRepository(gdb))
	return backend, api.New(client.New(server.URL, store)), store
}
