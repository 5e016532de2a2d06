package investor

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jafarkuku/preqin-task/internal/repositories/investor"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

var validate = validator.New()

// Register registers investor routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.POST("/bulk", BulkCreate)
	g.GET("/:id", Get)
	g.DELETE("/:id", Delete)
}

// List returns investors with pagination
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "investor_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	ctx, repo, err := ectoinject.GetContext[*investor.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, totalCount, err := repo.List(ctx, page, pageSize)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list investors")
	}

	return c.JSON(http.StatusOK, models.InvestorListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		HasNext:    page*pageSize < totalCount,
	})
}

// Create creates a new investor
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "investor_handler.Create")
	defer span.End()

	var req models.CreateInvestorRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*investor.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Create(ctx, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create investor")
	}

	return c.JSON(http.StatusCreated, models.InvestorResponse{Investor: *result})
}

// BulkCreate creates investors in bulk. The response items are a positional
// prefix of the request items.
func BulkCreate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "investor_handler.BulkCreate")
	defer span.End()

	var req models.BulkCreateInvestorsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*investor.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.BulkCreate(ctx, req.Items)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to bulk create investors")
	}

	return c.JSON(http.StatusCreated, models.BulkCreateInvestorsResponse{Items: items})
}

// Get returns a single investor by ID, including the commitment aggregates
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "investor_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*investor.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get investor")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "investor not found")
	}

	return c.JSON(http.StatusOK, models.InvestorResponse{Investor: *result})
}

// Delete soft deletes an investor
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "investor_handler.Delete")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*investor.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return httperror.NewHTTPError(http.StatusNotFound, "investor not found")
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete investor")
	}

	return c.NoContent(http.StatusNoContent)
}
