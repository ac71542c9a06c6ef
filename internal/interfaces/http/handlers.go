package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invoicetrust/trustdemo/internal/access"
	"github.com/invoicetrust/trustdemo/internal/application/service"
	"github.com/invoicetrust/trustdemo/internal/demo"
	"github.com/invoicetrust/trustdemo/internal/domain/entity"
)

const (
	maxHistoryLimit = 500
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DemoEngine is the subset of the demo engine served over HTTP
type DemoEngine interface {
	Snapshot() entity.Snapshot
	Subscribe(l demo.Listener) func()
	OpenUpload()
	CloseUpload()
	StartUploadSimulation(useExampleData bool) string
	Reset()
}

// SnapshotWriter renders a snapshot as a downloadable file
type SnapshotWriter interface {
	Write(w io.Writer, snap entity.Snapshot) error
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine    DemoEngine
	history   service.HistoryService
	exporter  SnapshotWriter
	routes    *access.RouteTable
	heartbeat time.Duration
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	engine DemoEngine,
	history service.HistoryService,
	exporter SnapshotWriter,
	routes *access.RouteTable,
	logger Logger,
) *Handlers {
	return &Handlers{
		engine:    engine,
		history:   history,
		exporter:  exporter,
		routes:    routes,
		heartbeat: 15 * time.Second,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// UploadRequest is the body of POST /api/demo/upload
type UploadRequest struct {
	UseExampleData bool `json:"useExampleData"`
}

// UploadResponse acknowledges a started upload simulation
type UploadResponse struct {
	BatchID string `json:"batch_id"`
}

// AccessResponse describes the authenticated user
type AccessResponse struct {
	User          *access.User `json:"user"`
	EffectiveRole access.Role  `json:"effective_company_role"`
}

// HistoryRequest represents query parameters for listing history
type HistoryRequest struct {
	Limit     int    `form:"limit"`
	InvoiceID string `form:"invoice_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// GetSnapshot handles GET /api/demo/snapshot
func (h *Handlers) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.engine.Snapshot(),
	})
}

// OpenUpload handles POST /api/demo/upload/open
func (h *Handlers) OpenUpload(c *gin.Context) {
	h.engine.OpenUpload()
	h.GetSnapshot(c)
}

// CloseUpload handles POST /api/demo/upload/close
func (h *Handlers) CloseUpload(c *gin.Context) {
	h.engine.CloseUpload()
	h.GetSnapshot(c)
}

// StartUpload handles POST /api/demo/upload
func (h *Handlers) StartUpload(c *gin.Context) {
	var req UploadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Error("Invalid upload request", "error", err)
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid request body",
			})
			return
		}
	}

	batchID := h.engine.StartUploadSimulation(req.UseExampleData)

	c.JSON(http.StatusAccepted, Response{
		Success: true,
		Data:    UploadResponse{BatchID: batchID},
	})
}

// Reset handles POST /api/demo/reset
func (h *Handlers) Reset(c *gin.Context) {
	h.engine.Reset()
	h.GetSnapshot(c)
}

// ExportXLSX handles GET /api/demo/export.xlsx
func (h *Handlers) ExportXLSX(c *gin.Context) {
	snap := h.engine.Snapshot()

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, snap); err != nil {
		h.logger.Error("Failed to export snapshot", "error", err, "version", snap.Version)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to export snapshot",
		})
		return
	}

	filename := "invoice-trust-demo-" + strconv.FormatUint(snap.Version, 10) + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Me handles GET /api/access/me
func (h *Handlers) Me(c *gin.Context) {
	user := CurrentUser(c)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: AccessResponse{
			User:          user,
			EffectiveRole: access.EffectiveCompanyRole(user),
		},
	})
}

// Decide handles GET /api/access/decide?path=
func (h *Handlers) Decide(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "path is required",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.routes.Decide(CurrentUser(c), path),
	})
}

// ListHistory handles GET /api/admin/demo/history
func (h *Handlers) ListHistory(c *gin.Context) {
	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}
	if req.Limit <= 0 || req.Limit > maxHistoryLimit {
		req.Limit = 50
	}

	var (
		records []*entity.PipelineHistory
		err     error
	)
	if req.InvoiceID != "" {
		records, err = h.history.ForInvoice(c.Request.Context(), req.InvoiceID)
	} else {
		records, err = h.history.Recent(c.Request.Context(), req.Limit)
	}
	if err != nil {
		h.logger.Error("Failed to list pipeline history", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to list history",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}
