package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/liveflow/donor-service/internal/api/dto"
	"github.com/liveflow/donor-service/internal/service"
)

// DonationsHandler exposes funding and checkout endpoints.
type DonationsHandler struct {
	donations *service.DonationService
	stats     *service.StatsService
}

// NewDonationsHandler constructs handler.
func NewDonationsHandler(donationService *service.DonationService, statsService *service.StatsService) *DonationsHandler {
	return &DonationsHandler{donations: donationService, stats: statsService}
}

// List GET /funding.
func (h *DonationsHandler) List(c *fiber.Ctx) error {
	donations, err := h.donations.List(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, donations)
}

// Checkout POST /create-checkout-session.
func (h *DonationsHandler) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	url, err := h.donations.CreateCheckout(c.UserContext(), service.CheckoutInput{
		Amount:     req.Amount,
		DonorEmail: req.DonorEmail,
		Donor:      req.Donor,
	})
	if err != nil {
		return err
	}
	return data(c, dto.CheckoutResponse{URL: url})
}

// PaymentSuccess POST /payment-success.
func (h *DonationsHandler) PaymentSuccess(c *fiber.Ctx) error {
	var req dto.PaymentSuccessRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.donations.Reconcile(c.UserContext(), req.SessionID)
	if err != nil {
		return err
	}
	return data(c, dto.PaymentSuccessResponse{
		Outcome:       res.Outcome,
		SessionStatus: res.SessionStatus,
		Donation:      res.Donation,
	})
}

// Stats GET /admin-stats.
func (h *DonationsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Get(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, stats)
}
