package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/liveflow/donor-service/internal/api/dto"
	"github.com/liveflow/donor-service/internal/domain"
	"github.com/liveflow/donor-service/internal/service"
)

// BloodRequestsHandler exposes the blood request lifecycle.
type BloodRequestsHandler struct {
	requests *service.BloodRequestService
}

// NewBloodRequestsHandler constructs handler.
func NewBloodRequestsHandler(requestService *service.BloodRequestService) *BloodRequestsHandler {
	return &BloodRequestsHandler{requests: requestService}
}

// Create POST /create-request.
func (h *BloodRequestsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateBloodRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	created, err := h.requests.Create(c.UserContext(), principal, service.CreateRequestInput{
		RegistererName:  req.RegistererName,
		RegistererEmail: req.RegistererEmail,
		RecipientName:   req.RecipientName,
		HospitalName:    req.HospitalName,
		FullAddress:     req.FullAddress,
		BloodGroup:      req.BloodGroup,
		Zila:            req.Zila,
		Upazila:         req.Upazila,
		DonationDate:    req.DonationDate,
		DonationTime:    req.DonationTime,
		RequestMessage:  req.RequestMessage,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.Inserted(created.ID)})
}

// Latest GET /my-blood-req-latest/:email.
func (h *BloodRequestsHandler) Latest(c *fiber.Ctx) error {
	return h.listOwn(c, true)
}

// Mine GET /my-blood-req/:email.
func (h *BloodRequestsHandler) Mine(c *fiber.Ctx) error {
	return h.listOwn(c, false)
}

func (h *BloodRequestsHandler) listOwn(c *fiber.Ctx, latest bool) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	reqs, err := h.requests.ListByOwner(c.UserContext(), principal, pathParam(c, "email"), latest)
	if err != nil {
		return err
	}
	return data(c, reqs)
}

// List GET /all-blood-req.
func (h *BloodRequestsHandler) List(c *fiber.Ctx) error {
	reqs, err := h.requests.List(c.UserContext(), service.RequestFilter{
		BloodGroup: c.Query("bloodGroup"),
		Status:     c.Query("status"),
	})
	if err != nil {
		return err
	}
	return data(c, reqs)
}

// Pending GET /pending-blood-req.
func (h *BloodRequestsHandler) Pending(c *fiber.Ctx) error {
	reqs, err := h.requests.ListPending(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, reqs)
}

// Archived GET /deleted-blood-req.
func (h *BloodRequestsHandler) Archived(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	archived, err := h.requests.ListArchived(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return data(c, archived)
}

// Details GET /req-details/:id. Unknown ids answer with null data.
func (h *BloodRequestsHandler) Details(c *fiber.Ctx) error {
	req, err := h.requests.Get(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return err
	}
	return data(c, req)
}

// AssignDonor PATCH /update-blood-status.
func (h *BloodRequestsHandler) AssignDonor(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignDonorRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.requests.AssignDonor(c.UserContext(), principal, service.AssignDonorInput{
		ID:         req.ID,
		Status:     domain.RequestStatus(req.Status),
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
	})
	if err != nil {
		return err
	}
	return data(c, dto.Updated(res))
}

// Complete PATCH /update-blood-status-done.
func (h *BloodRequestsHandler) Complete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CompleteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.requests.Complete(c.UserContext(), principal, req.ID, domain.RequestStatus(req.Status))
	if err != nil {
		return err
	}
	return data(c, dto.Updated(res))
}

// Edit PATCH /edit-request.
func (h *BloodRequestsHandler) Edit(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.EditBloodRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.requests.Edit(c.UserContext(), principal, req.ID, req.UpdateRequest)
	if err != nil {
		return err
	}
	return data(c, dto.Updated(res))
}

// Retire POST /delete-request.
func (h *BloodRequestsHandler) Retire(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RetireRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.requests.Retire(c.UserContext(), principal, req.ID, req.Request)
	if err != nil {
		return err
	}
	return data(c, dto.DeleteAck{
		Acknowledged: true,
		DeletedCount: res.Deleted,
		ArchivedID:   res.ArchivedID,
		Resumed:      res.Resumed,
	})
}
