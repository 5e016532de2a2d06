package commitment

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jafarkuku/preqin-task/internal/repositories/commitment"
	"github.com/jafarkuku/preqin-task/pkg/events"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

var validate = validator.New()

// Register registers commitment routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.POST("/bulk", BulkCreate)
	g.GET("/:id", Get)
}

func validateRequest(req *models.CreateCommitmentRequest) error {
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.Amount.IsPositive() {
		return httperror.NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}
	if req.Amount.Exponent() < -2 {
		return httperror.NewHTTPError(http.StatusBadRequest, "amount must have at most two decimal places")
	}
	if req.Currency == "" {
		req.Currency = models.DefaultCurrency
	}
	if !req.Currency.IsValid() {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported currency %q", req.Currency)
	}
	return nil
}

// emitCreated publishes commitment.created without blocking the response.
// Publish failures are logged by the emitter and do not fail the request.
func emitCreated(ctx context.Context, created ...models.Commitment) {
	if len(created) == 0 {
		return
	}

	ctx, emitter, err := ectoinject.GetContext[*events.Emitter](context.WithoutCancel(ctx))
	if err != nil {
		return
	}

	for _, c := range created {
		go func(c models.Commitment) {
			_ = emitter.EmitCommitmentCreated(ctx, &c)
		}(c)
	}
}

// List returns commitments with pagination, optionally filtered by investor_id
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "commitment_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	investorID := c.QueryParam("investor_id")

	ctx, repo, err := ectoinject.GetContext[*commitment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, totalCount, totalAmount, err := repo.List(ctx, investorID, page, pageSize)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list commitments")
	}

	return c.JSON(http.StatusOK, models.CommitmentListResponse{
		Items:       items,
		TotalCount:  totalCount,
		TotalAmount: totalAmount,
		Page:        page,
		PageSize:    pageSize,
		HasNext:     page*pageSize < totalCount,
	})
}

// Create creates a new commitment and emits commitment.created. A duplicate of
// an existing commitment returns the existing row and emits nothing.
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "commitment_handler.Create")
	defer span.End()

	var req models.CreateCommitmentRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validateRequest(&req); err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*commitment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, created, err := repo.Create(ctx, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create commitment")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create commitment")
	}

	if !created {
		return c.JSON(http.StatusOK, models.CommitmentResponse{Commitment: *result})
	}

	emitCreated(ctx, *result)

	return c.JSON(http.StatusCreated, models.CommitmentResponse{Commitment: *result})
}

// BulkCreate creates commitments in bulk, skipping duplicates, and emits
// commitment.created for every newly created row
func BulkCreate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "commitment_handler.BulkCreate")
	defer span.End()

	var req models.BulkCreateCommitmentsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for i := range req.Items {
		if err := validateRequest(&req.Items[i]); err != nil {
			return err
		}
	}

	ctx, repo, err := ectoinject.GetContext[*commitment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, skipped, err := repo.BulkCreate(ctx, req.Items)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to bulk create commitments")
	}

	emitCreated(ctx, items...)

	return c.JSON(http.StatusCreated, models.BulkCreateCommitmentsResponse{
		Items:   items,
		Skipped: skipped,
	})
}

// Get returns a single commitment by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "commitment_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*commitment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get commitment")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "commitment not found")
	}

	return c.JSON(http.StatusOK, models.CommitmentResponse{Commitment: *result})
}
