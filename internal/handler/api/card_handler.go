package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"windreseller/internal/models"
)

// CardHandler manages the bank cards shown to buyers at checkout.
type CardHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewCardHandler(repos *Repos, logger *zap.Logger) *CardHandler {
	return &CardHandler{repos: repos, logger: logger}
}

// Handle routes card API requests based on the "actions" field.
// POST /api/cards
func (h *CardHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "Invalid request body")
	}

	switch action {
	case "cards":
		return h.listCards(c)
	case "card_add":
		return h.addCard(c, body)
	case "card_edit":
		return h.editCard(c, body)
	case "toggle_card":
		return h.toggleCard(c, body)
	case "card_delete":
		return h.deleteCard(c, body)
	default:
		return errorResponse(c, "Unknown action: "+action)
	}
}

func (h *CardHandler) listCards(c echo.Context) error {
	cards, err := h.repos.Card.FindAll()
	if err != nil {
		h.logger.Error("Failed to list cards", zap.Error(err))
		return errorResponse(c, "Failed to retrieve cards")
	}
	return successResponse(c, "Successful", cards)
}

func (h *CardHandler) addCard(c echo.Context, body map[string]interface{}) error {
	title := getStringField(body, "title")
	number := getStringField(body, "card_number")
	if title == "" || number == "" {
		return errorResponse(c, "title and card_number are required")
	}
	card := &models.Card{Title: title, CardNumber: number, Active: true}
	if err := h.repos.Card.Create(card); err != nil {
		h.logger.Error("Failed to create card", zap.Error(err))
		return errorResponse(c, "Failed to create card")
	}
	return successResponse(c, "Card created", card)
}

func (h *CardHandler) editCard(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "card_id")
	if id == 0 {
		return errorResponse(c, "card_id is required")
	}
	if _, err := h.repos.Card.FindByID(id); err != nil {
		return errorResponse(c, "Card not found")
	}

	updates := map[string]interface{}{}
	if title := getStringField(body, "title"); title != "" {
		updates["title"] = title
	}
	if number := getStringField(body, "card_number"); number != "" {
		updates["card_number"] = number
	}
	if len(updates) == 0 {
		return errorResponse(c, "Nothing to update")
	}
	if err := h.repos.Card.Update(id, updates); err != nil {
		return errorResponse(c, "Failed to update card")
	}
	return successResponse(c, "Card updated", nil)
}

func (h *CardHandler) toggleCard(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "card_id")
	if id == 0 {
		return errorResponse(c, "card_id is required")
	}
	card, err := h.repos.Card.FindByID(id)
	if err != nil {
		return errorResponse(c, "Card not found")
	}
	if err := h.repos.Card.Update(id, map[string]interface{}{"active": !card.Active}); err != nil {
		return errorResponse(c, "Failed to update card")
	}
	return successResponse(c, "Card status updated", nil)
}

func (h *CardHandler) deleteCard(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "card_id")
	if id == 0 {
		return errorResponse(c, "card_id is required")
	}
	if err := h.repos.Card.Delete(id); err != nil {
		return errorResponse(c, "Failed to delete card")
	}
	return successResponse(c, "Card deleted", nil)
}
