// internal/server/handlers.go
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "cohost-dashboard/internal/common/errors"
	"cohost-dashboard/internal/dashboard"

	"github.com/gin-gonic/gin"
)

// boxPapersMarker is sent by the form next to the checkbox, so an unchecked box can be
// told apart from a request that did not carry the field at all.
const boxPapersMarker = "box_papers_present"

const readyTimeout = 2 * time.Second

type stateResponse struct {
	State dashboard.State `json:"state"`
	View  dashboard.View  `json:"view"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": s.config.ServiceName,
		"version": s.config.Version,
		"time":    time.Now().UTC(),
	})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", apperrors.LogFields(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
			"time":   time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) index(c *gin.Context) {
	state, err := s.controller.Session(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, pageTemplate, dashboard.NewView(state))
}

func (s *Server) state(c *gin.Context) {
	state, err := s.controller.Session(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{State: state, View: dashboard.NewView(state)})
}

// updateProduct saves the whole form, so Save or Enter keeps typed question text too.
func (s *Server) updateProduct(c *gin.Context) {
	if err := s.applyForm(c); err != nil {
		s.fail(c, err)
		return
	}
	state, err := s.controller.Session(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, state)
}

func (s *Server) updateQuestion(c *gin.Context) {
	state, err := s.controller.UpdateQuestion(c.Request.Context(), sessionID(c), c.PostForm("question"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, state)
}

func (s *Server) classify(c *gin.Context) {
	if err := s.applyForm(c); err != nil {
		s.fail(c, err)
		return
	}
	state, err := s.controller.Classify(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, state)
}

func (s *Server) generate(c *gin.Context) {
	if err := s.applyForm(c); err != nil {
		s.fail(c, err)
		return
	}
	state, err := s.controller.GenerateResponse(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, state)
}

func (s *Server) reset(c *gin.Context) {
	state, err := s.controller.Reset(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, state)
}

// applyForm stores whatever product fields and question text the page submitted along
// with an action button.
func (s *Server) applyForm(c *gin.Context) error {
	if _, err := s.applyProduct(c); err != nil {
		return err
	}
	if text, ok := c.GetPostForm("question"); ok {
		if _, err := s.controller.UpdateQuestion(c.Request.Context(), sessionID(c), text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) applyProduct(c *gin.Context) (dashboard.State, error) {
	values := productValues(c)
	if len(values) == 0 {
		return s.controller.Session(c.Request.Context(), sessionID(c))
	}
	return s.controller.UpdateProduct(c.Request.Context(), sessionID(c), values)
}

// productValues collects the submitted product fields. Other form keys are ignored.
func productValues(c *gin.Context) map[dashboard.Field]string {
	// GetPostForm parses the body into c.Request.PostForm.
	_, marked := c.GetPostForm(boxPapersMarker)

	values := make(map[dashboard.Field]string)
	for name, raw := range c.Request.PostForm {
		field, err := dashboard.ParseField(name)
		if err != nil || len(raw) == 0 {
			continue
		}
		values[field] = raw[0]
	}
	if _, ok := values[dashboard.FieldBoxPapers]; !ok && marked {
		values[dashboard.FieldBoxPapers] = ""
	}
	return values
}

// respond answers API clients with the new state and browsers with a redirect back to
// the page.
func (s *Server) respond(c *gin.Context, state dashboard.State) {
	if wantsJSON(c) {
		c.JSON(http.StatusOK, stateResponse{State: state, View: dashboard.NewView(state)})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) fail(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)

	fields := apperrors.LogFields(err)
	fields[sessionKey] = sessionID(c)
	fields["path"] = c.Request.URL.Path
	s.logger.Error("request failed", fields)
	_ = c.Error(err)

	status := http.StatusInternalServerError
	if apperrors.GetErrorCategory(stdErr.Code) == "INPUT" {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":   stdErr.Message,
		"code":    stdErr.Code,
		"details": stdErr.Details,
	})
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
