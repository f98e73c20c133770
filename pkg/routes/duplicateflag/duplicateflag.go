package duplicateflag

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Khalid-A/sidra/pkg/duplicates"
	"github.com/Khalid-A/sidra/pkg/merging"
	"github.com/Khalid-A/sidra/pkg/models"
)

// Register registers duplicate flag routes
func Register(g *echo.Group) {
	g.GET("", ListFlags)
	g.POST("/scan", RunScan)
	g.POST("/:id/resolve", ResolveFlag)
}

// ListFlags lists duplicate flags, optionally filtered by status
func ListFlags(c echo.Context) error {
	ctx := c.Request().Context()
	status := models.DuplicateFlagStatus(c.QueryParam("status"))

	ctx, svc, err := ectoinject.GetContext[*duplicates.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	flags, err := svc.ListFlags(ctx, status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, flags)
}

// RunScan runs a full duplicate scan over the member corpus. An optional
// threshold query parameter overrides the configured score floor.
func RunScan(c echo.Context) error {
	ctx := c.Request().Context()

	threshold := 0
	if raw := c.QueryParam("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return httperror.NewHTTPError(http.StatusBadRequest, "threshold must be an integer between 1 and 100")
		}
		threshold = parsed
	}

	ctx, svc, err := ectoinject.GetContext[*duplicates.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	summary, err := svc.RunScan(ctx, threshold)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

// ResolveFlag applies a reviewer decision to a flag: dismiss it, confirm it,
// or merge the flagged pair
func ResolveFlag(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req models.ResolveDuplicateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, resolver, err := ectoinject.GetContext[*merging.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	outcome, err := resolver.ResolveDuplicate(ctx, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, outcome)
}
