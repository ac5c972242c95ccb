package handler

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Pelan2022/Koulio/internal/audit"
	"github.com/Pelan2022/Koulio/pkg/constant"
)

type AuditHandler struct {
	repo audit.AuditRepository
}

func NewAuditHandler(repo audit.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

type auditRecordOutput struct {
	ID           string      `json:"id"`
	UserID       *string     `json:"userId,omitempty"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resourceType,omitempty"`
	ResourceID   string      `json:"resourceId,omitempty"`
	Details      interface{} `json:"details,omitempty"`
	IPAddress    string      `json:"ipAddress,omitempty"`
	UserAgent    string      `json:"userAgent,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// List returns audit records filtered by action, user and date range.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := audit.Filter{
		UserID: c.Query("userId"),
		Action: c.Query("action"),
		Limit:  c.QueryInt("limit", constant.DefaultPageLimit),
		Offset: c.QueryInt("offset", 0),
	}
	if filter.Limit > constant.MaxPageLimit {
		filter.Limit = constant.MaxPageLimit
	}

	if from := c.Query("dateFrom"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dateFrom"})
		}
		filter.DateFrom = &t
	}
	if to := c.Query("dateTo"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid dateTo"})
		}
		filter.DateTo = &t
	}

	records, err := h.repo.List(c.UserContext(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]auditRecordOutput, 0, len(records))
	for _, rec := range records {
		item := auditRecordOutput{
			ID:           rec.ID,
			UserID:       rec.UserID,
			Action:       rec.Action,
			ResourceType: rec.ResourceType,
			ResourceID:   rec.ResourceID,
			IPAddress:    rec.IPAddress,
			UserAgent:    rec.UserAgent,
			CreatedAt:    rec.CreatedAt,
		}
		if len(rec.Details) > 0 {
			item.Details = json.RawMessage(rec.Details)
		}
		out = append(out, item)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"records": out})
}
