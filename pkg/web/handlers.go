// Package web provides HTTP handlers and REST API endpoints for flow administration.
package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/registry"
	"github.com/dukex/flowadmin/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// HealthChecker reports whether the flow storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type APIHandlers struct {
	flows     *services.Flows
	validator *validator.Validate
	registry  *registry.Registry
	storage   HealthChecker
}

func NewAPIHandlers(
	flows *services.Flows,
	validator *validator.Validate,
	registry *registry.Registry,
	storage HealthChecker,
) *APIHandlers {
	return &APIHandlers{
		flows:     flows,
		validator: validator,
		registry:  registry,
		storage:   storage,
	}
}

func options(c fiber.Ctx) services.Options {
	user := c.Get(HeaderUser)
	if user == "" {
		user = AnonymousUser
	}

	return services.Options{User: user}
}

func apiVersion(c fiber.Ctx) string {
	if c.Get(HeaderAPIVersion) == APIVersionV1 {
		return APIVersionV1
	}

	return APIVersionV2
}

func param(c fiber.Ctx, name string) string {
	value := c.Params(name)

	unescaped, err := url.PathUnescape(value)
	if err != nil {
		return value
	}

	return unescaped
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flowSet := h.flows.GetFlows(c.Context(), options(c))

	if apiVersion(c) == APIVersionV1 {
		return c.JSON(flowSet.Flows)
	}

	return c.JSON(flowSet)
}

func (h *APIHandlers) SetFlows(c fiber.Ctx) error {
	deploymentType := models.DeploymentType(c.Get(HeaderDeploymentType))

	req := services.SetFlowsRequest{
		Options:        options(c),
		DeploymentType: deploymentType,
	}

	if deploymentType.OrDefault() != models.DeploymentTypeReload && len(c.Body()) > 0 {
		flowSet, err := h.parseFlowSet(c)
		if err != nil {
			return badRequest(c, err.Error())
		}

		req.Flows = flowSet
	}

	rev, err := h.flows.SetFlows(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	if apiVersion(c) == APIVersionV1 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(RevResponse{Rev: rev})
}

// parseFlowSet reads a bare node array for v1 clients and {rev, flows} for v2.
func (h *APIHandlers) parseFlowSet(c fiber.Ctx) (*models.FlowSet, error) {
	if apiVersion(c) == APIVersionV1 {
		var flows []models.NodeConfig
		if err := c.Bind().JSON(&flows); err != nil {
			return nil, err
		}

		return &models.FlowSet{Flows: flows}, nil
	}

	var req FlowsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, err
	}

	// A body without flows is left to the service, which rejects and audits it.
	if err := h.validator.Struct(req); err != nil {
		return nil, nil
	}

	return &models.FlowSet{Rev: req.Rev, Flows: req.Flows}, nil
}

func (h *APIHandlers) AddFlow(c fiber.Ctx) error {
	var req FlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	id, err := h.flows.AddFlow(c.Context(), services.FlowRequest{
		Options: options(c),
		Flow:    req.toFlow(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(IDResponse{ID: id})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := param(c, "id")

	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.flows.GetFlow(c.Context(), services.FlowRequest{Options: options(c), ID: id})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := param(c, "id")

	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	var req FlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	updated, err := h.flows.UpdateFlow(c.Context(), services.FlowRequest{
		Options: options(c),
		ID:      id,
		Flow:    req.toFlow(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(IDResponse{ID: updated})
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := param(c, "id")

	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	err := h.flows.DeleteFlow(c.Context(), services.FlowRequest{Options: options(c), ID: id})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetNodeCredentials(c fiber.Ctx) error {
	credentials := h.flows.GetNodeCredentials(c.Context(), services.CredentialsRequest{
		Options: options(c),
		Type:    param(c, "type"),
		ID:      param(c, "id"),
	})

	return c.JSON(credentials)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	storageCheck, storageOk := "Flow storage is healthy", true
	if err := h.storage.HealthCheck(c.Context()); err != nil {
		storageCheck, storageOk = "Flow storage is unhealthy: "+err.Error(), false
	}

	status := "unhealthy"
	message := "Flow admin API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && storageOk {
		status = "healthy"
		message = "Flow admin API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry": registryCheck,
			"storage":  storageCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Register mounts the flow admin routes on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/flows", h.GetFlows)
	app.Post("/flows", h.SetFlows)

	app.Post("/flow", h.AddFlow)
	app.Get("/flow/:id", h.GetFlow)
	app.Put("/flow/:id", h.UpdateFlow)
	app.Delete("/flow/:id", h.DeleteFlow)

	app.Get("/credentials/:type/:id", h.GetNodeCredentials)

	app.Get("/health", h.HealthCheck)
}
