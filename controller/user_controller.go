// controller/user_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/util"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

type UserController struct {
	userService service.IUserService
}

func NewUserController(userService service.IUserService) *UserController {
	return &UserController{userService: userService}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	DeptID   *int64 `json:"dept_id"`
}

type updateUserRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
	DeptID   *int64 `json:"dept_id"`
}

type userRolesRequest struct {
	RoleIDs []int64 `json:"role_ids" binding:"required"`
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// CreateUser endpoint
func (uc *UserController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}

	user := &model.User{
		Username: req.Username,
		Nickname: req.Nickname,
		Email:    req.Email,
		Phone:    req.Phone,
		DeptID:   req.DeptID,
		Status:   model.StatusEnabled,
	}
	created, err := uc.userService.CreateUser(c.Request.Context(), user, req.Password)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetUser endpoint
func (uc *UserController) GetUser(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	user, err := uc.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers endpoint
func (uc *UserController) ListUsers(c *gin.Context) {
	caller := util.GetIdentityFromContext(c)
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}
	deptID, err := helper_util.GetOptionalInt64Param(c, "dept_id")
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid dept_id", err)
		return
	}
	status, err := helper_util.GetOptionalIntParam(c, "status")
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid status", err)
		return
	}

	users, total, err := uc.userService.ListUsers(c.Request.Context(), caller, deptID, c.Query("username"), status, limit, offset)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users, "total": total})
}

// UpdateUser endpoint
func (uc *UserController) UpdateUser(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}

	updated, err := uc.userService.UpdateUser(c.Request.Context(), &model.User{
		ID:       userID,
		Nickname: req.Nickname,
		Email:    req.Email,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
		DeptID:   req.DeptID,
	})
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdateUserRoles endpoint
func (uc *UserController) UpdateUserRoles(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req userRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", err)
		return
	}

	if err := uc.userService.UpdateUserRoles(c.Request.Context(), userID, req.RoleIDs); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetStatus endpoint toggles the account lock
func (uc *UserController) SetStatus(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req struct {
		Status int `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid status data", err)
		return
	}
	if err := uc.userService.SetStatus(c.Request.Context(), util.GetIdentityFromContext(c), userID, req.Status); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetSuperuser endpoint
func (uc *UserController) SetSuperuser(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req struct {
		IsSuperuser bool `json:"is_superuser"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid superuser data", err)
		return
	}
	if err := uc.userService.SetSuperuser(c.Request.Context(), util.GetIdentityFromContext(c), userID, req.IsSuperuser); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetStaff endpoint
func (uc *UserController) SetStaff(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req struct {
		IsStaff bool `json:"is_staff"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid staff data", err)
		return
	}
	if err := uc.userService.SetStaff(c.Request.Context(), util.GetIdentityFromContext(c), userID, req.IsStaff); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetMultiLogin endpoint
func (uc *UserController) SetMultiLogin(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req struct {
		IsMultiLogin bool `json:"is_multi_login"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid multi-login data", err)
		return
	}
	if err := uc.userService.SetMultiLogin(c.Request.Context(), util.GetIdentityFromContext(c), userID, req.IsMultiLogin); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetPassword endpoint
func (uc *UserController) ResetPassword(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid password data", err)
		return
	}

	if err := uc.userService.ResetPassword(c.Request.Context(), userID, req.Password); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteUser endpoint
func (uc *UserController) DeleteUser(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		return
	}
	if err := uc.userService.DeleteUser(c.Request.Context(), util.GetIdentityFromContext(c), userID); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseIDParam reads the :id path parameter; it writes the error response
// itself so callers only check the error.
func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid id parameter", err)
		return 0, err
	}
	return id, nil
}
