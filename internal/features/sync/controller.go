package sync

import (
	"errors"

	"ticketflo-sync/internal/features/connection"
	"ticketflo-sync/internal/features/contact"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncRequest is the single invocation body for all sync actions
type SyncRequest struct {
	Action         string          `json:"action"`
	OrganizationID string          `json:"organizationId"`
	ContactIDs     []string        `json:"contactIds"`
	Options        *RequestOptions `json:"options"`
}

type RequestOptions struct {
	ConflictResolution string `json:"conflictResolution"`
	CreateMissing      *bool  `json:"createMissing"`
	UpdateExisting     *bool  `json:"updateExisting"`
}

type SyncController struct {
	Service SyncService
}

func NewSyncController(service SyncService) *SyncController {
	return &SyncController{
		Service: service,
	}
}

// HandleSync godoc
func (ctrl *SyncController) HandleSync(c *fiber.Ctx) error {
	var req SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.OrganizationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Organization ID required",
		})
	}

	opts := DefaultOptions()
	if req.Options != nil {
		if req.Options.ConflictResolution != "" {
			policy := Policy(req.Options.ConflictResolution)
			if !policy.Valid() {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid conflict resolution policy",
				})
			}
			opts.ConflictResolution = policy
		}
		if req.Options.CreateMissing != nil {
			opts.CreateMissing = *req.Options.CreateMissing
		}
		if req.Options.UpdateExisting != nil {
			opts.UpdateExisting = *req.Options.UpdateExisting
		}
	}

	switch req.Action {
	case "getContactCount":
		counts, err := ctrl.Service.GetContactCount(c.Context(), req.OrganizationID)
		if err != nil {
			return ctrl.errorResponse(c, err)
		}
		return c.JSON(struct {
			Success bool `json:"success"`
			*CountResult
		}{true, counts})

	case "pushContacts":
		ids, err := parseObjectIDs(req.ContactIDs)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid contact ID",
			})
		}

		result, err := ctrl.Service.PushContacts(c.Context(), req.OrganizationID, ids, opts)
		if err != nil {
			return ctrl.errorResponse(c, err)
		}
		return c.JSON(struct {
			Success bool `json:"success"`
			*RunResult
		}{true, result})

	case "pullContacts":
		result, err := ctrl.Service.PullContacts(c.Context(), req.OrganizationID, opts)
		if err != nil {
			return ctrl.errorResponse(c, err)
		}
		return c.JSON(struct {
			Success bool `json:"success"`
			*RunResult
		}{true, result})

	case "pushSingleContact":
		if len(req.ContactIDs) != 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Single contact ID required",
			})
		}
		id, err := primitive.ObjectIDFromHex(req.ContactIDs[0])
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid contact ID",
			})
		}

		result, err := ctrl.Service.PushSingleContact(c.Context(), req.OrganizationID, id, opts)
		if err != nil {
			return ctrl.errorResponse(c, err)
		}
		return c.JSON(struct {
			Success bool `json:"success"`
			*SingleResult
		}{true, result})

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid action",
		})
	}
}

// ListSyncLogs godoc
func (ctrl *SyncController) ListSyncLogs(c *fiber.Ctx) error {
	organizationID := c.Query("organizationId")
	if organizationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Organization ID required",
		})
	}

	logs, err := ctrl.Service.ListLogs(c.Context(), organizationID, int64(c.QueryInt("limit", 50)))
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"data": logs,
	})
}

// GetSyncStatus godoc
func (ctrl *SyncController) GetSyncStatus(c *fiber.Ctx) error {
	organizationID := c.Query("organizationId")
	if organizationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Organization ID required",
		})
	}

	status, err := ctrl.Service.Status(c.Context(), organizationID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	return c.JSON(status)
}

func (ctrl *SyncController) errorResponse(c *fiber.Ctx, err error) error {
	var tokenErr *connection.TokenError
	switch {
	case errors.Is(err, connection.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No HubSpot connection found",
		})
	case errors.Is(err, contact.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Contact not found",
		})
	case errors.As(err, &tokenErr):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Failed to get valid access token",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func parseObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	parsed := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, oid)
	}
	return parsed, nil
}
