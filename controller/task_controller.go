// controller/task_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/task"
	"github.com/aegis-admin/aegis/util"
)

type TaskController struct {
	dispatcher *task.Dispatcher
}

func NewTaskController(dispatcher *task.Dispatcher) *TaskController {
	return &TaskController{dispatcher: dispatcher}
}

// ListTasks endpoint returns the registered task names
func (tc *TaskController) ListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, tc.dispatcher.Names())
}

// ListRuns endpoint returns every tracked execution, newest first
func (tc *TaskController) ListRuns(c *gin.Context) {
	c.JSON(http.StatusOK, tc.dispatcher.ListRuns())
}

// GetRun endpoint
func (tc *TaskController) GetRun(c *gin.Context) {
	run, err := tc.dispatcher.GetRun(c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// SubmitTask endpoint queues one execution of a named task
func (tc *TaskController) SubmitTask(c *gin.Context) {
	run, err := tc.dispatcher.Submit(c.Param("name"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, run)
}

// RevokeRun endpoint cancels a pending or running execution
func (tc *TaskController) RevokeRun(c *gin.Context) {
	if err := tc.dispatcher.Revoke(c.Param("id")); err != nil {
		util.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
