package v1

import (
	"bytes"
	"mime"
	"net/http"

	"go-jobboard-backend/internal/delivery/http/middleware"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ApplicationHandler struct {
	applicationUC domain.ApplicationUsecase
}

// NewApplicationHandler registers application routes
func NewApplicationHandler(r *gin.RouterGroup, applicationUC domain.ApplicationUsecase) {
	handler := &ApplicationHandler{applicationUC: applicationUC}

	applications := r.Group("/applications")
	{
		applications.GET("/", handler.List)
		applications.POST("/", middleware.RequireRole(domain.RoleSeeker), handler.Apply)
		applications.GET("/export/", middleware.RequireRole(domain.RoleHR), handler.Export)
		applications.POST("/:id/update_status/", handler.UpdateStatus)
		applications.GET("/:id/view_resume/", handler.ViewResume)
		applications.GET("/:id/download_resume/", handler.DownloadResume)
	}
}

// ListApplications godoc
// @Summary      List applications
// @Description  Recruiters see applications on their jobs, seekers their own
// @Tags         applications
// @Produce      json
// @Param        job  query     int  false  "Only applications for this job"
// @Success      200  {array}   domain.Application
// @Failure      401  {object}  response.Response
// @Router       /applications/ [get]
// @Security     BearerAuth
func (h *ApplicationHandler) List(c *gin.Context) {
	jobID, err := queryID(c, "job")
	if err != nil {
		c.Error(err)
		return
	}

	apps, err := h.applicationUC.List(c.Request.Context(), middleware.ActorFrom(c), jobID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// Apply godoc
// @Summary      Apply to a job
// @Description  Submit answers to the job's screening questions (Job seeker only)
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ApplyInput  true  "Application data"
// @Success      201   {object}  domain.Application
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /applications/ [post]
// @Security     BearerAuth
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req domain.ApplyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	app, err := h.applicationUC.Apply(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// UpdateStatus godoc
// @Summary      Change application status
// @Description  APPLIED -> REVIEWED|REJECTED|HIRED, REVIEWED -> REJECTED|HIRED (job owner only)
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id    path      int                 true  "Application ID"
// @Param        body  body      domain.StatusInput  true  "New status"
// @Success      200   {object}  domain.Application
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /applications/{id}/update_status/ [post]
// @Security     BearerAuth
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req domain.StatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	app, err := h.applicationUC.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ViewResume godoc
// @Summary      View applicant resume inline
// @Tags         applications
// @Produce      application/pdf
// @Param        id   path  int  true  "Application ID"
// @Success      200  {file}  binary
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /applications/{id}/view_resume/ [get]
// @Security     BearerAuth
func (h *ApplicationHandler) ViewResume(c *gin.Context) {
	h.serveResume(c, "inline")
}

// DownloadResume godoc
// @Summary      Download applicant resume
// @Tags         applications
// @Produce      application/octet-stream
// @Param        id   path  int  true  "Application ID"
// @Success      200  {file}  binary
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /applications/{id}/download_resume/ [get]
// @Security     BearerAuth
func (h *ApplicationHandler) DownloadResume(c *gin.Context) {
	h.serveResume(c, "attachment")
}

func (h *ApplicationHandler) serveResume(c *gin.Context, disposition string) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	file, err := h.applicationUC.OpenResume(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	defer file.Body.Close()

	size := file.Size
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, file.ContentType, file.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType(disposition, map[string]string{"filename": file.Name}),
		"Cache-Control":       "private, no-store",
	})
}

// ExportApplications godoc
// @Summary      Export applications to Excel
// @Description  XLSX of every application on one of the recruiter's jobs
// @Tags         applications
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        job  query  int  true  "Job ID"
// @Success      200  {file}  binary
// @Failure      403  {object}  response.Response
// @Router       /applications/export/ [get]
// @Security     BearerAuth
func (h *ApplicationHandler) Export(c *gin.Context) {
	jobID, err := queryID(c, "job")
	if err != nil {
		c.Error(err)
		return
	}

	var buf bytes.Buffer
	filename, err := h.applicationUC.ExportApplications(c.Request.Context(), middleware.ActorFrom(c), jobID, &buf)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
