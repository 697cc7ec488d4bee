// controller/dept_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/util"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

type DeptController struct {
	deptService service.IDeptService
}

func NewDeptController(deptService service.IDeptService) *DeptController {
	return &DeptController{deptService: deptService}
}

type deptRequest struct {
	Name     string `json:"name" binding:"required"`
	Sort     int    `json:"sort"`
	Leader   string `json:"leader"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Status   int    `json:"status"`
	ParentID *int64 `json:"parent_id"`
}

func (req deptRequest) toModel(id int64) *model.Dept {
	return &model.Dept{
		ID:       id,
		Name:     req.Name,
		Sort:     req.Sort,
		Leader:   req.Leader,
		Phone:    req.Phone,
		Email:    req.Email,
		Status:   req.Status,
		ParentID: req.ParentID,
	}
}

// CreateDept endpoint
func (dc *DeptController) CreateDept(c *gin.Context) {
	var req deptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid department data", err)
		return
	}

	created, err := dc.deptService.CreateDept(c.Request.Context(), req.toModel(0))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetDept endpoint
func (dc *DeptController) GetDept(c *gin.Context) {
	deptID, err := parseIDParam(c)
	if err != nil {
		return
	}
	dept, err := dc.deptService.GetDept(c.Request.Context(), deptID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dept)
}

// GetDeptTree endpoint
func (dc *DeptController) GetDeptTree(c *gin.Context) {
	caller := util.GetIdentityFromContext(c)
	status, err := helper_util.GetOptionalIntParam(c, "status")
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid status", err)
		return
	}

	tree, err := dc.deptService.GetDeptTree(c.Request.Context(), caller, c.Query("name"), status)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// UpdateDept endpoint
func (dc *DeptController) UpdateDept(c *gin.Context) {
	deptID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req deptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid department data", err)
		return
	}

	updated, err := dc.deptService.UpdateDept(c.Request.Context(), req.toModel(deptID))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteDept endpoint
func (dc *DeptController) DeleteDept(c *gin.Context) {
	deptID, err := parseIDParam(c)
	if err != nil {
		return
	}
	if err := dc.deptService.DeleteDept(c.Request.Context(), deptID); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
