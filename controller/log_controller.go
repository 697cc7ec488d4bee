// controller/log_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/util"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

type LogController struct {
	logService service.ILogService
}

func NewLogController(logService service.ILogService) *LogController {
	return &LogController{logService: logService}
}

// ListLoginLogs endpoint
func (lc *LogController) ListLoginLogs(c *gin.Context) {
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

	entries, total, err := lc.logService.ListLoginLogs(c.Request.Context(), c.Query("username"), c.Query("ip"), status, limit, offset)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "total": total})
}

// ListOperaLogs endpoint
func (lc *LogController) ListOperaLogs(c *gin.Context) {
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

	entries, total, err := lc.logService.ListOperaLogs(c.Request.Context(), c.Query("username"), c.Query("ip"), status, limit, offset)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "total": total})
}

// PurgeLoginLogs endpoint
func (lc *LogController) PurgeLoginLogs(c *gin.Context) {
	deleted, err := lc.logService.PurgeLoginLogs(c.Request.Context())
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// PurgeOperaLogs endpoint
func (lc *LogController) PurgeOperaLogs(c *gin.Context) {
	deleted, err := lc.logService.PurgeOperaLogs(c.Request.Context())
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
