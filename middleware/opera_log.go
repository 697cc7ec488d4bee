// middleware/opera_log.go
package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aegis-admin/aegis/audit"
	"github.com/aegis-admin/aegis/model"
	"github.com/aegis-admin/aegis/util"
)

const maxRecordedBody = 4096

// Fields whose values never go into the operation log
var redactedFields = []string{"password", "old_password", "new_password", "refresh_token"}

// OperaLog records every non-GET request as an operation log entry. The body
// is captured up to a cap and redacted of credential fields; recording is
// handed to the audit service and never blocks the response.
func OperaLog(auditService audit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		args := captureBody(c)

		c.Next()

		username := ""
		if ident := util.GetIdentityFromContext(c); ident != nil {
			username = ident.Username
		}

		status := model.OperaLogSuccess
		msg := "success"
		if c.Writer.Status() >= http.StatusBadRequest {
			status = model.OperaLogFail
			msg = strings.Join(c.Errors.Errors(), "; ")
			if msg == "" {
				msg = http.StatusText(c.Writer.Status())
			}
		}

		auditService.RecordOpera(&model.OperaLog{
			TraceID:   strings.ReplaceAll(uuid.NewString(), "-", ""),
			Username:  username,
			Method:    c.Request.Method,
			Title:     c.FullPath(),
			Path:      c.Request.URL.Path,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Args:      args,
			Status:    status,
			Code:      strconv.Itoa(c.Writer.Status()),
			Msg:       msg,
			CostTime:  float64(time.Since(start).Milliseconds()),
			OperaTime: start,
		})
	}
}

func captureBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRecordedBody))
	if err != nil {
		return ""
	}
	// Hand the handler a replayable body
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))

	recorded := string(body)
	for _, field := range redactedFields {
		if strings.Contains(recorded, field) {
			return "[REDACTED]"
		}
	}
	return recorded
}
