// controller/menu_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/util"
)

type MenuController struct {
	menuService service.IMenuService
}

func NewMenuController(menuService service.IMenuService) *MenuController {
	return &MenuController{menuService: menuService}
}

type menuRequest struct {
	Title     string `json:"title" binding:"required"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Sort      int    `json:"sort"`
	Icon      string `json:"icon"`
	Type      int    `json:"type"`
	Component string `json:"component"`
	Perms     string `json:"perms"`
	Status    int    `json:"status"`
	Display   int    `json:"display"`
	Remark    string `json:"remark"`
	ParentID  *int64 `json:"parent_id"`
}

func (req menuRequest) toModel(id int64) *model.Menu {
	return &model.Menu{
		ID:        id,
		Title:     req.Title,
		Name:      req.Name,
		Path:      req.Path,
		Sort:      req.Sort,
		Icon:      req.Icon,
		Type:      req.Type,
		Component: req.Component,
		Perms:     req.Perms,
		Status:    req.Status,
		Display:   req.Display,
		Remark:    req.Remark,
		ParentID:  req.ParentID,
	}
}

// CreateMenu endpoint
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req menuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid menu data", err)
		return
	}

	created, err := mc.menuService.CreateMenu(c.Request.Context(), req.toModel(0))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetMenu endpoint
func (mc *MenuController) GetMenu(c *gin.Context) {
	menuID, err := parseIDParam(c)
	if err != nil {
		return
	}
	menu, err := mc.menuService.GetMenu(c.Request.Context(), menuID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// GetMenuTree endpoint returns the full forest for administration
func (mc *MenuController) GetMenuTree(c *gin.Context) {
	tree, err := mc.menuService.GetMenuTree(c.Request.Context())
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// GetSidebar endpoint returns the caller's navigation forest
func (mc *MenuController) GetSidebar(c *gin.Context) {
	ident := util.GetIdentityFromContext(c)
	if ident == nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthenticated", nil)
		return
	}
	tree, err := mc.menuService.GetSidebar(c.Request.Context(), ident)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// UpdateMenu endpoint
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	menuID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req menuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid menu data", err)
		return
	}

	updated, err := mc.menuService.UpdateMenu(c.Request.Context(), req.toModel(menuID))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteMenu endpoint
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	menuID, err := parseIDParam(c)
	if err != nil {
		return
	}
	if err := mc.menuService.DeleteMenu(c.Request.Context(), menuID); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
