// controller/role_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/util"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

type RoleController struct {
	roleService service.IRoleService
}

func NewRoleController(roleService service.IRoleService) *RoleController {
	return &RoleController{roleService: roleService}
}

type roleRequest struct {
	Name   string `json:"name" binding:"required"`
	Status int    `json:"status"`
	Remark string `json:"remark"`
}

type roleMenusRequest struct {
	MenuIDs []int64 `json:"menu_ids" binding:"required"`
}

type roleRulesRequest struct {
	RuleIDs []int64 `json:"rule_ids" binding:"required"`
}

// CreateRole endpoint
func (rc *RoleController) CreateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", err)
		return
	}

	created, err := rc.roleService.CreateRole(c.Request.Context(), &model.Role{
		Name:   req.Name,
		Status: req.Status,
		Remark: req.Remark,
	})
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRole endpoint
func (rc *RoleController) GetRole(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	role, err := rc.roleService.GetRole(c.Request.Context(), roleID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// ListRoles endpoint
func (rc *RoleController) ListRoles(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}
	status, err := helper_util.GetOptionalIntParam(c, "status")
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid status", err)
		return
	}

	roles, total, err := rc.roleService.ListRoles(c.Request.Context(), c.Query("name"), status, limit, offset)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": roles, "total": total})
}

// UpdateRole endpoint
func (rc *RoleController) UpdateRole(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", err)
		return
	}

	updated, err := rc.roleService.UpdateRole(c.Request.Context(), &model.Role{
		ID:     roleID,
		Name:   req.Name,
		Status: req.Status,
		Remark: req.Remark,
	})
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdateRoleMenus endpoint
func (rc *RoleController) UpdateRoleMenus(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req roleMenusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid menu data", err)
		return
	}

	if err := rc.roleService.UpdateRoleMenus(c.Request.Context(), roleID, req.MenuIDs); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateRoleRules endpoint
func (rc *RoleController) UpdateRoleRules(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req roleRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid rule data", err)
		return
	}

	if err := rc.roleService.UpdateRoleRules(c.Request.Context(), roleID, req.RuleIDs); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRole endpoint
func (rc *RoleController) DeleteRole(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	if err := rc.roleService.DeleteRole(c.Request.Context(), roleID); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
