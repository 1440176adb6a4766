package handler

import (
	"errors"
	"net/http"
	"strings"

	"mamane/internal/middleware"
	"mamane/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func statusOf(kind pkg.Kind) int {
	switch kind {
	case pkg.KindUnauthorized:
		return http.StatusUnauthorized
	case pkg.KindForbidden:
		return http.StatusForbidden
	case pkg.KindInvalid, pkg.KindConflict:
		return http.StatusBadRequest
	case pkg.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with a user-displayable message; dependency causes stay hidden.
// Banned callers get the same sign-out body the identity middleware sends.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, pkg.ErrBanned) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    pkg.ErrBanned.Msg,
			"reason":   "banned",
			"redirect": middleware.BannedRedirect,
		})
		return
	}
	c.JSON(statusOf(pkg.KindOf(err)), gin.H{"error": pkg.Message(err)})
}

// writeAdminError also includes the underlying cause of dependency failures.
func writeAdminError(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := pkg.KindOf(err)
	body := gin.H{"error": pkg.Message(err)}
	if kind == pkg.KindDependency {
		if d := pkg.Details(err); d != "" {
			body["details"] = d
		}
	}
	c.JSON(statusOf(kind), body)
}

// writeBindError flattens validator errors into "field: tag; " pairs.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var b strings.Builder
		for _, fe := range verrs {
			b.WriteString(fe.Field())
			b.WriteString(": ")
			b.WriteString(fe.Tag())
			b.WriteString("; ")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimSpace(b.String())})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
