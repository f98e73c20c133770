package lineage

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Khalid-A/sidra/pkg/matching"
	"github.com/Khalid-A/sidra/pkg/models"
)

// Register registers lineage matching routes
func Register(g *echo.Group) {
	g.POST("/find-matches", FindMatches)
}

// FindMatches scores a submitted name chain against the member corpus and
// returns tiered father candidates
func FindMatches(c echo.Context) error {
	ctx := c.Request().Context()

	var input models.NameInput
	if err := c.Bind(&input); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.FindMatches(ctx, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
