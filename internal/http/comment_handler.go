package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
)

type CommentHandler struct {
	comments repository.CommentRepository
	timeout  time.Duration
}

func NewCommentHandler(comments repository.CommentRepository, timeout time.Duration) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		timeout:  timeout,
	}
}

type CreateCommentRequestDTO struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// POST /api/comments (public)
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateCommentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" || req.Message == "" {
		respondError(w, http.StatusBadRequest, "missing_field", "name and message are required")
		return
	}

	comment := &domain.Comment{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := h.comments.Insert(ctx, comment); err != nil {
		log.Printf("request %s: failed to store comment: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}

// GET /api/comments (staff)
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	comments, err := h.comments.List(ctx)
	if err != nil {
		log.Printf("request %s: failed to list comments: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if comments == nil {
		comments = make([]*domain.Comment, 0)
	}

	respondJSON(w, http.StatusOK, comments)
}
