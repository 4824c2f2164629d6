package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/openlovable/lovable/gateway/models"
	"github.com/openlovable/lovable/pipeline"
	"github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/project_sandbox"
	sandbox_contracts "github.com/openlovable/lovable/project_sandbox/contracts"
	"github.com/pterm/pterm"
)

// Handler exposes the pipeline over HTTP for a browser front end.
type Handler struct {
	pipeline contracts.IPipeline
	sandbox  sandbox_contracts.IProjectSandbox
	logger   *pterm.Logger
}

func NewHandler(p contracts.IPipeline, sandbox sandbox_contracts.IProjectSandbox, logger *pterm.Logger) *Handler {
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &Handler{pipeline: p, sandbox: sandbox, logger: logger}
}

func errorResponse(c *gin.Context, status int, code string, err error) {
	c.JSON(status, models.ErrorResponse{Error: err.Error(), Code: code})
}

// GetState handles GET /api/state
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Snapshot())
}

// CreateTurn handles POST /api/turns. The turn runs in the background; a
// second submission while one runs gets 409.
func (h *Handler) CreateTurn(c *gin.Context) {
	var req models.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, err)
		return
	}

	_, err := h.pipeline.SubmitAsync(context.Background(), req.Prompt)
	switch {
	case errors.Is(err, pipeline.ErrTurnInProgress):
		errorResponse(c, http.StatusConflict, models.ErrCodeTurnInProgress, err)
		return
	case errors.Is(err, pipeline.ErrEmptyRequest):
		errorResponse(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, err)
		return
	case err != nil:
		errorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req models.ProjectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			errorResponse(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, err)
			return
		}
	}

	if err := h.pipeline.NewProject(req.Name); err != nil {
		if errors.Is(err, pipeline.ErrTurnInProgress) {
			errorResponse(c, http.StatusConflict, models.ErrCodeTurnInProgress, err)
			return
		}
		errorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, err)
		return
	}

	c.JSON(http.StatusCreated, h.pipeline.Snapshot())
}

// UpdateFile handles PUT /api/files
func (h *Handler) UpdateFile(c *gin.Context) {
	var req models.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, err)
		return
	}

	if err := h.pipeline.UpdateFileContent(req.Path, req.Content); err != nil {
		if errors.Is(err, pipeline.ErrFileNotFound) {
			errorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, err)
			return
		}
		errorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// StopDevServer handles POST /api/devserver/stop
func (h *Handler) StopDevServer(c *gin.Context) {
	if err := h.pipeline.StopServer(); err != nil {
		errorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// Export handles GET /api/export and streams the project as a zip archive.
func (h *Handler) Export(c *gin.Context) {
	snapshot := h.pipeline.Snapshot()
	if snapshot.Project == nil || snapshot.Project.RootPath == "" {
		errorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, errors.New("no project to export"))
		return
	}

	tmp, err := os.MkdirTemp("", "lovable-export-")
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, err)
		return
	}
	defer os.RemoveAll(tmp)

	name := project_sandbox.Slugify(snapshot.Project.Name) + ".zip"
	destination := filepath.Join(tmp, name)
	count, err := h.sandbox.ExportZip(snapshot.Project.RootPath, destination, project_sandbox.DefaultExportExcludes)
	if err != nil {
		h.logger.Error("export failed", h.logger.Args("root", snapshot.Project.RootPath, "error", err))
		errorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, err)
		return
	}

	c.Header("X-Exported-Files", fmt.Sprint(count))
	c.FileAttachment(destination, name)
}
