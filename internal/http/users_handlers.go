package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"peercall/internal/store"
)

type UsersAPI struct{ DB *store.Postgres }

type createUserReq struct {
	Username string `json:"username"`
}

type userResponse struct {
	Username  string    `json:"username"`
	Groups    []string  `json:"groups"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u store.User) userResponse {
	if u.Groups == nil {
		u.Groups = []string{}
	}
	return userResponse{Username: u.Username, Groups: u.Groups, CreatedAt: u.CreatedAt}
}

// Create registers a username. Re-creating an existing user returns it
// unchanged.
func (a *UsersAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	u, err := a.DB.CreateUser(r.Context(), req.Username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toUserResponse(u))
}

// List returns up to 100 users
func (a *UsersAPI) List(w http.ResponseWriter, r *http.Request) {
	users, err := a.DB.ListUsers(r.Context(), 100, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, resp)
}

// Get fetches one user by name.
func (a *UsersAPI) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("username")
	if name == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}

	u, err := a.DB.GetUser(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toUserResponse(u))
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
