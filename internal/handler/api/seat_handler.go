package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"windreseller/internal/models"
	"windreseller/internal/pkg/secrets"
	"windreseller/internal/service"
)

// SeatHandler handles seat inventory API actions. Slot counters are
// only ever touched through the domain service; this handler covers
// the CRUD around them.
type SeatHandler struct {
	repos  *Repos
	svc    *service.Service
	sealer *secrets.Sealer
	logger *zap.Logger
}

func NewSeatHandler(repos *Repos, svc *service.Service, sealer *secrets.Sealer, logger *zap.Logger) *SeatHandler {
	return &SeatHandler{repos: repos, svc: svc, sealer: sealer, logger: logger}
}

// Handle routes seat API requests based on the "actions" field.
// POST /api/seats
func (h *SeatHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "Invalid request body")
	}

	switch action {
	case "seats":
		return h.listSeats(c, body)
	case "seat":
		return h.getSeat(c, body)
	case "seat_add":
		return h.addSeat(c, body)
	case "seat_edit":
		return h.editSeat(c, body)
	case "toggle_seat":
		return h.toggleSeat(c, body)
	case "seats_csv":
		return h.exportCSV(c)
	case "seats_import":
		return h.importCSV(c, body)
	default:
		return errorResponse(c, "Unknown action: "+action)
	}
}

// listSeats - action: "seats"
func (h *SeatHandler) listSeats(c echo.Context, body map[string]interface{}) error {
	limit := getIntField(body, "limit", 50)
	page := getIntField(body, "page", 1)
	q := getStringField(body, "q")

	seats, total, err := h.repos.Seat.FindAll(limit, page, q)
	if err != nil {
		h.logger.Error("Failed to list seats", zap.Error(err))
		return errorResponse(c, "Failed to retrieve seats")
	}
	return successResponse(c, "Successful", paginatedResponse(seats, total, page, limit))
}

// getSeat - action: "seat" — decrypted view for the admin panel.
func (h *SeatHandler) getSeat(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "seat_id")
	if id == 0 {
		return errorResponse(c, "seat_id is required")
	}
	seat, err := h.repos.Seat.FindByID(id)
	if err != nil {
		return errorResponse(c, "Seat not found")
	}

	password, err := h.sealer.Open(seat.PassEnc)
	if err != nil {
		h.logger.Error("Failed to open seat password", zap.Uint("seat_id", id), zap.Error(err))
		return errorResponse(c, "Failed to decrypt seat credentials")
	}
	secret, err := h.sealer.Open(seat.SecretEnc)
	if err != nil {
		h.logger.Error("Failed to open seat secret", zap.Uint("seat_id", id), zap.Error(err))
		return errorResponse(c, "Failed to decrypt seat credentials")
	}

	return successResponse(c, "Successful", map[string]interface{}{
		"seat":     seat,
		"password": password,
		"secret":   secret,
	})
}

// addSeat - action: "seat_add"
func (h *SeatHandler) addSeat(c echo.Context, body map[string]interface{}) error {
	email := getStringField(body, "email")
	password := getStringField(body, "password")
	secret := getStringField(body, "secret")
	maxSlots := getIntField(body, "max_slots", 15)

	if email == "" || password == "" {
		return errorResponse(c, "email and password are required")
	}
	if maxSlots <= 0 {
		return errorResponse(c, "max_slots must be positive")
	}

	seat, err := h.buildSeat(email, password, secret, maxSlots)
	if err != nil {
		return errorResponse(c, "Failed to encrypt seat credentials")
	}
	if err := h.repos.Seat.Create(seat); err != nil {
		h.logger.Error("Failed to create seat", zap.String("email", email), zap.Error(err))
		return errorResponse(c, "Failed to create seat (duplicate email?)")
	}
	return successResponse(c, "Seat created", seat)
}

func (h *SeatHandler) buildSeat(email, password, secret string, maxSlots int) (*models.Seat, error) {
	passEnc, err := h.sealer.Seal(password)
	if err != nil {
		return nil, err
	}
	secretEnc, err := h.sealer.Seal(secret)
	if err != nil {
		return nil, err
	}
	return &models.Seat{
		Email:     email,
		PassEnc:   passEnc,
		SecretEnc: secretEnc,
		MaxSlots:  maxSlots,
		Status:    models.SeatStatusActive,
	}, nil
}

// editSeat - action: "seat_edit"
func (h *SeatHandler) editSeat(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "seat_id")
	if id == 0 {
		return errorResponse(c, "seat_id is required")
	}
	seat, err := h.repos.Seat.FindByID(id)
	if err != nil {
		return errorResponse(c, "Seat not found")
	}

	updates := map[string]interface{}{}
	if email := getStringField(body, "email"); email != "" {
		updates["email"] = email
	}
	if password := getStringField(body, "password"); password != "" {
		enc, err := h.sealer.Seal(password)
		if err != nil {
			return errorResponse(c, "Failed to encrypt seat credentials")
		}
		updates["pass_enc"] = enc
	}
	if secret := getStringField(body, "secret"); secret != "" {
		enc, err := h.sealer.Seal(secret)
		if err != nil {
			return errorResponse(c, "Failed to encrypt seat credentials")
		}
		updates["secret_enc"] = enc
	}
	if maxSlots := getIntField(body, "max_slots", 0); maxSlots > 0 {
		if maxSlots < seat.Sold {
			return errorResponse(c, "max_slots cannot go below sold count")
		}
		updates["max_slots"] = maxSlots
	}
	if len(updates) == 0 {
		return errorResponse(c, "Nothing to update")
	}

	if err := h.repos.Seat.Update(id, updates); err != nil {
		h.logger.Error("Failed to update seat", zap.Uint("seat_id", id), zap.Error(err))
		return errorResponse(c, "Failed to update seat")
	}
	return successResponse(c, "Seat updated", nil)
}

// toggleSeat - action: "toggle_seat"
func (h *SeatHandler) toggleSeat(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "seat_id")
	status := getStringField(body, "status")
	if id == 0 || status == "" {
		return errorResponse(c, "seat_id and status are required")
	}
	if err := h.svc.ToggleSeatStatus(c.Request().Context(), id, status); err != nil {
		return errorResponse(c, domainErrorMessage(err))
	}
	return successResponse(c, "Seat status updated", nil)
}

// exportCSV - action: "seats_csv" — seats that still have free slots,
// credentials decrypted, for offline bookkeeping.
func (h *SeatHandler) exportCSV(c echo.Context) error {
	seats, err := h.repos.Seat.FindWithFreeSlots()
	if err != nil {
		return errorResponse(c, "Failed to retrieve seats")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"email", "password", "secret", "free_slots"})
	for _, seat := range seats {
		password, err := h.sealer.Open(seat.PassEnc)
		if err != nil {
			continue
		}
		secret, _ := h.sealer.Open(seat.SecretEnc)
		_ = w.Write([]string{seat.Email, password, secret, strconv.Itoa(seat.FreeSlots())})
	}
	w.Flush()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="seats.csv"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

// importCSV - action: "seats_import" — bulk add from CSV lines of
// email,password,secret[,max_slots].
func (h *SeatHandler) importCSV(c echo.Context, body map[string]interface{}) error {
	data := getStringField(body, "csv")
	if data == "" {
		return errorResponse(c, "csv is required")
	}

	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return errorResponse(c, "Malformed CSV")
	}

	added := 0
	var failed []string
	for _, rec := range records {
		if len(rec) < 3 || rec[0] == "email" {
			continue
		}
		maxSlots := 15
		if len(rec) > 3 {
			if v, err := strconv.Atoi(strings.TrimSpace(rec[3])); err == nil && v > 0 {
				maxSlots = v
			}
		}
		seat, err := h.buildSeat(strings.TrimSpace(rec[0]), rec[1], rec[2], maxSlots)
		if err != nil {
			failed = append(failed, rec[0])
			continue
		}
		if err := h.repos.Seat.Create(seat); err != nil {
			failed = append(failed, rec[0])
			continue
		}
		added++
	}

	return successResponse(c, fmt.Sprintf("%d seats added", added), map[string]interface{}{
		"added":  added,
		"failed": failed,
	})
}
