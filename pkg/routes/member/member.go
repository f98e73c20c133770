package member

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Khalid-A/sidra/pkg/graph"
	"github.com/Khalid-A/sidra/pkg/members"
	"github.com/Khalid-A/sidra/pkg/models"
)

// Register registers member routes
func Register(g *echo.Group) {
	g.POST("", CreateMember)
	g.GET("", ListMembers)
	g.GET("/:id", GetMember)
	g.PUT("/:id", UpdateMember)
	g.DELETE("/:id", DeleteMember)
	g.GET("/:id/children", GetChildren)
	g.GET("/:id/ancestors", GetAncestors)
	g.GET("/:id/history", GetHistory)
	g.GET("/:id/photos", ListPhotos)
	g.POST("/:id/photos", AddPhoto)
}

// CreateMember creates a new family member
func CreateMember(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	member, err := svc.Create(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, member)
}

// ListMembers lists all family members
func ListMembers(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	list, err := svc.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}

// GetMember gets a member by ID
func GetMember(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	member, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, member)
}

// UpdateMember applies a partial update to a member
func UpdateMember(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req models.UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	member, err := svc.Update(ctx, id, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, member)
}

// DeleteMember deletes a member without children
func DeleteMember(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := svc.Delete(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// GetChildren lists a member's direct children
func GetChildren(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	children, err := svc.Children(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, children)
}

// GetAncestors walks the lineage graph upward from a member
func GetAncestors(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, lineage, err := ectoinject.GetContext[*graph.LineageService](ctx)
	if err != nil || lineage == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "lineage graph unavailable")
	}

	ancestors, err := lineage.Ancestors(ctx, id, 10)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ancestors)
}

// GetHistory lists the change history for a member
func GetHistory(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	history, err := svc.History(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, history)
}

// AddPhotoRequest is the body for attaching a photo to a member
type AddPhotoRequest struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// AddPhoto attaches a photo to a member
func AddPhoto(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req AddPhotoRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	photo, err := svc.AddPhoto(ctx, id, req.URL, req.Caption)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, photo)
}

// ListPhotos lists a member's photos
func ListPhotos(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*members.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	photos, err := svc.Photos(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, photos)
}
