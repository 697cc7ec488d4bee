// util/http_util.go
package util

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
)

// IdentityKey is the gin context key the auth middleware stores the resolved
// identity snapshot under.
const IdentityKey = "identity"

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// HandleError maps a service error onto an HTTP response via its sentinel.
// Unrecognized errors become a 500 with a generic message so internals never
// leak to clients.
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, aegis_errors.ErrAuthentication):
		RespondWithError(c, http.StatusUnauthorized, aegis_errors.ErrAuthentication.Error(), err)
	case errors.Is(err, aegis_errors.ErrTokenExpired):
		RespondWithError(c, http.StatusUnauthorized, err.Error(), err)
	case errors.Is(err, aegis_errors.ErrTokenInvalid):
		RespondWithError(c, http.StatusUnauthorized, err.Error(), err)
	case errors.Is(err, aegis_errors.ErrAuthorizationDenied):
		RespondWithError(c, http.StatusForbidden, err.Error(), err)
	case errors.Is(err, aegis_errors.ErrForbiddenOperation):
		RespondWithError(c, http.StatusForbidden, err.Error(), err)
	case isNotFound(err):
		RespondWithError(c, http.StatusNotFound, err.Error(), err)
	case isConflict(err):
		RespondWithError(c, http.StatusConflict, err.Error(), err)
	case isBadRequest(err):
		RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	default:
		RespondWithError(c, http.StatusInternalServerError, "internal server error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, aegis_errors.ErrUserNotFound) ||
		errors.Is(err, aegis_errors.ErrRoleNotFound) ||
		errors.Is(err, aegis_errors.ErrMenuNotFound) ||
		errors.Is(err, aegis_errors.ErrDeptNotFound) ||
		errors.Is(err, aegis_errors.ErrDataRuleNotFound) ||
		errors.Is(err, aegis_errors.ErrTaskNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, aegis_errors.ErrUserConflict) ||
		errors.Is(err, aegis_errors.ErrNicknameConflict) ||
		errors.Is(err, aegis_errors.ErrEmailConflict) ||
		errors.Is(err, aegis_errors.ErrRoleConflict) ||
		errors.Is(err, aegis_errors.ErrMenuConflict) ||
		errors.Is(err, aegis_errors.ErrMenuHasChildren) ||
		errors.Is(err, aegis_errors.ErrDeptConflict) ||
		errors.Is(err, aegis_errors.ErrDeptHasUsers) ||
		errors.Is(err, aegis_errors.ErrDataRuleConflict)
}

func isBadRequest(err error) bool {
	return errors.Is(err, aegis_errors.ErrRuleModelNotFound) ||
		errors.Is(err, aegis_errors.ErrRuleColumnNotFound)
}

// GetIdentityFromContext returns the snapshot the auth middleware resolved,
// or nil on unauthenticated routes.
func GetIdentityFromContext(c *gin.Context) *identity.Snapshot {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil
	}
	ident, ok := value.(*identity.Snapshot)
	if !ok {
		return nil
	}
	return ident
}
