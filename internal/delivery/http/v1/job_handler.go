package v1

import (
	"net/http"

	"go-jobboard-backend/internal/delivery/http/middleware"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobUC domain.JobUsecase
}

func NewJobHandler(public *gin.RouterGroup, protected *gin.RouterGroup, jobUC domain.JobUsecase) {
	handler := &JobHandler{jobUC: jobUC}

	// PUBLIC routes - no authentication required
	publicJobs := public.Group("/jobs")
	{
		publicJobs.GET("/", handler.List)
		publicJobs.GET("/:id/", handler.GetDetails)
	}

	// PROTECTED routes - owner checks happen in the usecase
	protectedJobs := protected.Group("/jobs")
	{
		protectedJobs.POST("/", middleware.RequireRole(domain.RoleHR), handler.Create)
		protectedJobs.PATCH("/:id/", handler.Update)
		protectedJobs.DELETE("/:id/", handler.Delete)
	}
}

// ListJobs godoc
// @Summary      List jobs
// @Description  Public job list, newest first
// @Tags         jobs
// @Produce      json
// @Param        search     query     string  false  "Match title, description or location"
// @Param        recruiter  query     int     false  "Only jobs posted by this recruiter"
// @Success      200        {array}   domain.Job
// @Router       /jobs/ [get]
func (h *JobHandler) List(c *gin.Context) {
	recruiterID, err := queryID(c, "recruiter")
	if err != nil {
		c.Error(err)
		return
	}

	jobs, err := h.jobUC.ListJobs(c.Request.Context(), domain.JobFilter{
		Search:      c.Query("search"),
		RecruiterID: recruiterID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob godoc
// @Summary      Get a job
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  domain.Job
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id}/ [get]
func (h *JobHandler) GetDetails(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	job, err := h.jobUC.GetJob(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateJob godoc
// @Summary      Create a new job
// @Description  Create a job posting with screening questions (Recruiter only)
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job  body      domain.JobInput  true  "Job JSON"
// @Success      201  {object}  domain.Job
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /jobs/ [post]
// @Security     BearerAuth
func (h *JobHandler) Create(c *gin.Context) {
	var req domain.JobInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	job, err := h.jobUC.CreateJob(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// UpdateJob godoc
// @Summary      Update a job
// @Description  Partially update a job (owner only)
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id   path      int              true  "Job ID"
// @Param        job  body      domain.JobPatch  true  "Fields to change"
// @Success      200  {object}  domain.Job
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id}/ [patch]
// @Security     BearerAuth
func (h *JobHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req domain.JobPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	job, err := h.jobUC.UpdateJob(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob godoc
// @Summary      Delete a job
// @Tags         jobs
// @Param        id   path  int  true  "Job ID"
// @Success      204
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id}/ [delete]
// @Security     BearerAuth
func (h *JobHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.jobUC.DeleteJob(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
