package cartapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"PawMart/internal/identity"
	"PawMart/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// JWT, when set, validates presented bearer tokens: the token must
	// parse and its subject must match the userId being operated on.
	// Requests without an Authorization header pass through, matching
	// the client engine's unauthenticated mode.
	JWT *identity.TokenMaker
}

type upsertReq struct {
	UserID string `json:"userId"`
	Line
}

type setQuantityReq struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type removeReq struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId,omitempty"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "userId required", nil)
		return
	}
	if !s.authorize(w, r, userID) {
		return
	}

	lines, err := s.Store.Get(r.Context(), userID)
	if err != nil {
		s.logErr("get cart failed", userID, err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if lines == nil {
		lines = []Line{}
	}
	kit.WriteJSON(w, http.StatusOK, lines)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertReq
	if err := kit.DecodeStrict(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.UserID == "" || req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "userId/productId required", nil)
		return
	}
	if !s.authorize(w, r, req.UserID) {
		return
	}

	if err := s.Store.Upsert(r.Context(), req.UserID, req.Line); err != nil {
		s.logErr("upsert cart line failed", req.UserID, err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityReq
	if err := kit.DecodeStrict(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.UserID == "" || req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "userId/productId required", nil)
		return
	}
	if !s.authorize(w, r, req.UserID) {
		return
	}

	if err := s.Store.SetQuantity(r.Context(), req.UserID, req.ProductID, req.Quantity); err != nil {
		s.logErr("set quantity failed", req.UserID, err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemove deletes one line, or the whole cart when no productId
// is given.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req removeReq
	if err := kit.DecodeStrict(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.UserID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "userId required", nil)
		return
	}
	if !s.authorize(w, r, req.UserID) {
		return
	}

	var err error
	if req.ProductID == "" {
		err = s.Store.Clear(r.Context(), req.UserID)
	} else {
		err = s.Store.Remove(r.Context(), req.UserID, req.ProductID)
	}
	if err != nil {
		s.logErr("remove cart line failed", req.UserID, err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request, userID string) bool {
	if s.JWT == nil {
		return true
	}

	authz := r.Header.Get("Authorization")
	if authz == "" {
		return true
	}
	if !strings.HasPrefix(authz, "Bearer ") {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return false
	}

	claims, err := s.JWT.Parse(strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return false
	}
	if claims.UserID != userID {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return false
	}
	return true
}

func (s *Server) logErr(msg, userID string, err error) {
	if s.Log != nil {
		s.Log.Error(msg, zap.String("user_id", userID), zap.Error(err))
	}
}
