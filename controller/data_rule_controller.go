// controller/data_rule_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/service"
	"github.com/aegis-admin/aegis/util"
	helper_util "github.com/aegis-admin/aegis/util/helper"
)

type DataRuleController struct {
	dataRuleService service.IDataRuleService
}

func NewDataRuleController(dataRuleService service.IDataRuleService) *DataRuleController {
	return &DataRuleController{dataRuleService: dataRuleService}
}

type dataRuleRequest struct {
	Name       string `json:"name" binding:"required"`
	Model      string `json:"model" binding:"required"`
	Column     string `json:"column" binding:"required"`
	Operator   int    `json:"operator"`
	Expression int    `json:"expression"`
	Value      string `json:"value" binding:"required"`
}

func (req dataRuleRequest) toModel(id int64) *model.DataRule {
	return &model.DataRule{
		ID:         id,
		Name:       req.Name,
		Model:      req.Model,
		Column:     req.Column,
		Operator:   req.Operator,
		Expression: req.Expression,
		Value:      req.Value,
	}
}

// CreateRule endpoint
func (drc *DataRuleController) CreateRule(c *gin.Context) {
	var req dataRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid rule data", err)
		return
	}

	created, err := drc.dataRuleService.CreateRule(c.Request.Context(), req.toModel(0))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRule endpoint
func (drc *DataRuleController) GetRule(c *gin.Context) {
	ruleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	rule, err := drc.dataRuleService.GetRule(c.Request.Context(), ruleID)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// ListRules endpoint
func (drc *DataRuleController) ListRules(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	rules, total, err := drc.dataRuleService.ListRules(c.Request.Context(), c.Query("name"), limit, offset)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rules, "total": total})
}

// ListRuleModels endpoint returns the models rules may target
func (drc *DataRuleController) ListRuleModels(c *gin.Context) {
	c.JSON(http.StatusOK, drc.dataRuleService.ListRuleModels(c.Request.Context()))
}

// ListRuleColumns endpoint returns the permitted columns for one model
func (drc *DataRuleController) ListRuleColumns(c *gin.Context) {
	columns, err := drc.dataRuleService.ListRuleColumns(c.Request.Context(), c.Param("model"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, columns)
}

// UpdateRule endpoint
func (drc *DataRuleController) UpdateRule(c *gin.Context) {
	ruleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	var req dataRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid rule data", err)
		return
	}

	updated, err := drc.dataRuleService.UpdateRule(c.Request.Context(), req.toModel(ruleID))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRule endpoint
func (drc *DataRuleController) DeleteRule(c *gin.Context) {
	ruleID, err := parseIDParam(c)
	if err != nil {
		return
	}
	if err := drc.dataRuleService.DeleteRule(c.Request.Context(), ruleID); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
