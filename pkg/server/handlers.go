package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orneryd/recipeconv/pkg/unitgraph"
)

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(s.requestContext(), s.recovery(), s.accessLog(), s.limitBody())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1", s.rateLimit())
	v1.GET("/units", s.handleUnits)
	v1.GET("/convert/unit", s.handleConvertUnit)
	v1.POST("/convert/line", s.handleConvertLine)
	v1.POST("/convert/recipe", s.handleConvertRecipe)
	v1.POST("/convert/batch", s.handleConvertBatch)

	router.NoRoute(func(c *gin.Context) {
		s.abort(c, http.StatusNotFound, "not_found", "no such endpoint")
	})
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleUnits(c *gin.Context) {
	units := s.conv.Units()
	if units == nil {
		units = []string{}
	}
	c.JSON(http.StatusOK, UnitsResponse{Units: units})
}

// handleConvertUnit handles GET /v1/convert/unit.
//
// Responds 404 when either unit is unknown or the two are not connected.
func (s *Server) handleConvertUnit(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		s.abort(c, http.StatusBadRequest, "bad_request", "from and to are required")
		return
	}

	multiplier := s.config.DefaultMultiplier
	if raw := c.Query("multiplier"); raw != "" {
		m, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.abort(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid multiplier %q", raw))
			return
		}
		multiplier = m
	}
	if err := validMultiplier(multiplier); err != nil {
		s.abort(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	value := s.conv.ConvertUnitToUnit(from, to, multiplier)
	if value == unitgraph.Unresolved {
		s.abort(c, http.StatusNotFound, "no_conversion",
			fmt.Sprintf("no conversion from %q to %q", from, to))
		return
	}
	c.JSON(http.StatusOK, UnitResponse{From: from, To: to, Multiplier: multiplier, Value: value})
}

func (s *Server) handleConvertLine(c *gin.Context) {
	req, multiplier, ok := s.bindConvert(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ConvertResponse{Text: s.conv.ConvertLine(req.Text, multiplier)})
}

func (s *Server) handleConvertRecipe(c *gin.Context) {
	req, multiplier, ok := s.bindConvert(c)
	if !ok {
		return
	}
	text := s.conv.ConvertRecipeContext(c.Request.Context(), req.Text, multiplier)
	c.JSON(http.StatusOK, ConvertResponse{Text: text})
}

func (s *Server) handleConvertBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if s.config.MaxBatchSize > 0 && len(req.Texts) > s.config.MaxBatchSize {
		s.abort(c, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("batch of %d exceeds limit of %d", len(req.Texts), s.config.MaxBatchSize))
		return
	}
	multiplier, err := s.multiplier(req.Multiplier)
	if err != nil {
		s.abort(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	texts, err := s.conv.ConvertRecipes(c.Request.Context(), req.Texts, multiplier)
	if err != nil {
		s.abort(c, http.StatusServiceUnavailable, "cancelled", err.Error())
		return
	}
	c.JSON(http.StatusOK, BatchResponse{Texts: texts})
}

func (s *Server) bindConvert(c *gin.Context) (ConvertRequest, float64, bool) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return req, 0, false
	}
	multiplier, err := s.multiplier(req.Multiplier)
	if err != nil {
		s.abort(c, http.StatusBadRequest, "bad_request", err.Error())
		return req, 0, false
	}
	return req, multiplier, true
}

func (s *Server) multiplier(m *float64) (float64, error) {
	if m == nil {
		return s.config.DefaultMultiplier, nil
	}
	return *m, validMultiplier(*m)
}

var errBadMultiplier = errors.New("multiplier must be positive")

func validMultiplier(m float64) error {
	if !(m > 0) {
		return fmt.Errorf("%w, got %g", errBadMultiplier, m)
	}
	return nil
}
