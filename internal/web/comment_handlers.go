package web

import (
	"net/http"

	"github.com/ereinhol/nycevents/internal/comment"
)

// apiListComments returns the nested comment tree for an event.
func (s *Server) apiListComments(w http.ResponseWriter, eventID int64) {
	tree, err := s.comments.TreeForEvent(eventID)
	if err != nil {
		writeError(w, err)
		return
	}

	if tree == nil {
		tree = make([]*comment.Node, 0)
	}
	apiJSON(w, tree, http.StatusOK)
}

// apiAddComment posts a comment or reply on an event.
func (s *Server) apiAddComment(w http.ResponseWriter, r *http.Request, eventID int64) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Text     string  `json:"text"`
		ParentID *string `json:"parent_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := s.comments.Add(eventID, userID, req.Text, req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}

	apiJSON(w, c, http.StatusCreated)
}

// apiDeleteComment removes a comment and all of its replies.
func (s *Server) apiDeleteComment(w http.ResponseWriter, r *http.Request, eventID int64, commentID string) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.comments.Delete(eventID, commentID, userID); err != nil {
		writeError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"id": commentID, "removed": true}, http.StatusOK)
}
