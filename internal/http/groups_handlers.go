package httpx

import (
	"errors"
	"net/http"
	"time"

	"peercall/internal/store"
)

type GroupsAPI struct{ DB *store.Postgres }

type groupResponse struct {
	GroupID   string    `json:"groupId"`
	Members   []string  `json:"members"`
	Messages  int       `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

func toGroupResponse(g store.Group) groupResponse {
	if g.Members == nil {
		g.Members = []string{}
	}
	return groupResponse{
		GroupID:   g.GroupID,
		Members:   g.Members,
		Messages:  len(g.MessageIDs),
		CreatedAt: g.CreatedAt,
	}
}

// List returns up to 100 groups
func (a *GroupsAPI) List(w http.ResponseWriter, r *http.Request) {
	groups, err := a.DB.ListGroups(r.Context(), 100, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupResponse(g))
	}
	writeJSON(w, resp)
}

// Get fetches one group by its 5-character identifier.
func (a *GroupsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	g, err := a.DB.GetGroup(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toGroupResponse(g))
}

// Messages returns the group's persisted chat history in insertion order.
func (a *GroupsAPI) Messages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	msgs, err := a.DB.ListGroupMessages(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{ID: m.ID, Content: m.Content, Author: m.Author, CreatedAt: m.CreatedAt})
	}
	writeJSON(w, resp)
}
