package handlers

import (
	"net/http"

	pkgerrors "forecast-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// DocsHandler serves the registered per-version swagger documents
type DocsHandler struct {
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewDocsHandler creates a new docs handler
func NewDocsHandler(errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *DocsHandler {
	return &DocsHandler{
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// GetDocument handles GET /swagger/{group}/swagger.json
func (h *DocsHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")

	doc, err := swag.ReadDoc(group)
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewNotFoundError("swagger document "+group))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		h.logger.Error("Failed to write swagger document", zap.String("group", group), zap.Error(err))
	}
}
