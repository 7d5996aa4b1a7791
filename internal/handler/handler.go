// Package handler exposes certificate issuance and verification over HTTP.
package handler

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/apperr"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/certificate"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/render"
)

// DefaultFilename is the download name of an issued certificate.
const DefaultFilename = "Certificate for Appreciation.pdf"

// AssetChecker reports template and font reachability.
type AssetChecker interface {
	CheckAssets(ctx context.Context) []render.AssetStatus
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Options wires a Handler.
type Options struct {
	Service  *certificate.Service
	Assets   AssetChecker
	Filename string
	Health   map[string]HealthCheck
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Handler serves the certificate API.
type Handler struct {
	svc      *certificate.Service
	assets   AssetChecker
	filename string
	health   map[string]HealthCheck
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// New creates a handler.
func New(opts Options) *Handler {
	h := &Handler{
		svc:      opts.Service,
		assets:   opts.Assets,
		filename: opts.Filename,
		health:   opts.Health,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
	}
	if h.filename == "" {
		h.filename = DefaultFilename
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	h.logger = h.logger.With(zap.String("handler", "certificates"))
	return h
}

// Register mounts the routes. admin guards the admin group and issueGuard
// wraps issuance; either may be nil.
func (h *Handler) Register(r gin.IRouter, admin, issueGuard gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", h.metricsHandler())

	v1 := r.Group("/v1")
	v1.GET("/status", h.Status)
	v1.GET("/assets", h.Assets)
	v1.POST("/certificates/check", h.CheckForm)
	if issueGuard != nil {
		v1.POST("/certificates", issueGuard, h.Issue)
	} else {
		v1.POST("/certificates", h.Issue)
	}
	v1.POST("/verifications", h.Verify)

	adminGroup := v1.Group("/admin")
	if admin != nil {
		adminGroup.Use(admin)
	}
	adminGroup.PUT("/status", h.SetStatus)
	adminGroup.GET("/certificates/:code", h.GetCertificate)
}

func (h *Handler) metricsHandler() gin.HandlerFunc {
	if h.gatherer == nil {
		return gin.WrapH(promhttp.Handler())
	}
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}

// Healthz reports dependency health.
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// Status reports whether issuance is enabled.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"certificates_enabled": h.svc.Enabled()})
}

// Assets reports template and font accessibility.
func (h *Handler) Assets(c *gin.Context) {
	if h.assets == nil {
		c.JSON(http.StatusOK, gin.H{"assets": []render.AssetStatus{}, "all_accessible": false})
		return
	}
	statuses := h.assets.CheckAssets(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"assets":         statuses,
		"all_accessible": len(render.Inaccessible(statuses)) == 0,
	})
}

// CheckForm validates a form without issuing anything.
func (h *Handler) CheckForm(c *gin.Context) {
	var state certificate.FormState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, certificate.CheckForm(state))
}

// Issue generates a certificate. The PDF is returned as an attachment, or as
// JSON with a data URI when format=datauri.
func (h *Handler) Issue(c *gin.Context) {
	var a certificate.Applicant
	if err := c.ShouldBind(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issued, err := h.svc.Issue(c.Request.Context(), a)
	if err != nil {
		h.issueError(c, err)
		return
	}

	code := issued.Record.Code
	c.Header("X-Certificate-Code", code)
	if strings.EqualFold(c.Query("format"), "datauri") {
		c.JSON(http.StatusCreated, gin.H{
			"code":          code,
			"filename":      h.filename,
			"mode":          issued.Document.Mode,
			"font_fallback": issued.Document.FontFallback,
			"data_uri":      issued.Document.DataURI(),
		})
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": h.filename}))
	c.Data(http.StatusCreated, "application/pdf", issued.Document.Bytes)
}

func (h *Handler) issueError(c *gin.Context, err error) {
	if v, ok := certificate.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": v.Fields})
		return
	}
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindDisabled:
		status = http.StatusServiceUnavailable
	case apperr.KindNetwork:
		status = http.StatusBadGateway
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperr.UserMessage(err)})
}

type verifyRequest struct {
	Code string `json:"code" form:"code"`
}

// Verify looks a code up and marks it verified when found.
func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "certificate code required"})
		return
	}

	res, err := h.svc.Verify(c.Request.Context(), req.Code)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": apperr.MsgVerifyFailed})
		return
	}
	if !res.Valid {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, res)
}

type statusRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetStatus switches issuance on or off.
func (h *Handler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.svc.SetEnabled(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"certificates_enabled": h.svc.Enabled()})
}

// GetCertificate reads a record without verifying it.
func (h *Handler) GetCertificate(c *gin.Context) {
	res := h.svc.Lookup(c.Request.Context(), c.Param("code"))
	switch res.Status {
	case certificate.StatusFound:
		c.JSON(http.StatusOK, res.Record)
	case certificate.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "certificate not found"})
	default:
		_ = c.Error(res.Err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "certificate store unavailable"})
	}
}
