package web

import (
	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/dukex/flowadmin/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType(persistence.CodeInvalidInput).
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError renders service and store failures as problem responses
// whose type is the error code.
func handleServiceError(c fiber.Ctx, err error) error {
	if serviceErr, ok := services.AsError(err); ok && serviceErr.Status != 0 {
		problem := problems.NewStatusProblem(serviceErr.Status).
			WithInstance(c.Path()).
			WithType(serviceErr.Code)

		if serviceErr.Message != "" {
			problem = problem.WithDetail(serviceErr.Message)
		}

		return c.Status(serviceErr.Status).JSON(problem)
	}

	if validationErr, ok := persistence.AsValidationError(err); ok {
		problem := problems.NewStatusProblem(fiber.StatusBadRequest).
			WithInstance(c.Path()).
			WithType(validationErr.Code).
			WithDetail(validationErr.Message)

		return c.Status(fiber.StatusBadRequest).JSON(problem)
	}

	if persistence.IsFlowNotFound(err) {
		problem := problems.NewStatusProblem(fiber.StatusNotFound).
			WithInstance(c.Path()).
			WithType(services.CodeNotFound)

		return c.Status(fiber.StatusNotFound).JSON(problem)
	}

	return internalError(c, err)
}
