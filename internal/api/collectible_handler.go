package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/service"
)

// CollectibleHandler exposes the collectibles an account owns.
type CollectibleHandler struct {
	inventory service.InventoryService
	logger    *slog.Logger
}

// NewCollectibleHandler creates a new CollectibleHandler.
func NewCollectibleHandler(inventory service.InventoryService, logger *slog.Logger) *CollectibleHandler {
	if inventory == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("inventory service cannot be nil for CollectibleHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectibleHandler{
		inventory: inventory,
		logger:    logger.With(slog.String("component", "collectible_handler")),
	}
}

// List handles GET /collectibles.
func (h *CollectibleHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	collectibles, err := h.inventory.List(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list collectibles")
		return
	}
	if collectibles == nil {
		collectibles = []domain.Collectible{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CollectiblesResponse{Collectibles: collectibles})
}

// Get handles GET /collectibles/{id}. Collectibles of other accounts are
// reported as not found.
func (h *CollectibleHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, collectibleID, ok := handleAccountIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	collectible, err := h.inventory.Get(r.Context(), accountID, collectibleID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load collectible")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, collectible)
}

// Update handles PATCH /collectibles/{id}.
func (h *CollectibleHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, collectibleID, ok := handleAccountIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateCollectibleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.CustomName == nil && req.IsFavorite == nil {
		HandleAPIError(w, r, domain.NewValidationError("", "custom_name or is_favorite is required", domain.ErrValidation), "")
		return
	}

	collectible, err := h.inventory.Update(r.Context(), accountID, collectibleID, service.CollectibleUpdate{
		CustomName: req.CustomName,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update collectible")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, collectible)
}
