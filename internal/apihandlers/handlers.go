package apihandlers

import (
	"net/http"

	"aicruit/internal/app"
	"aicruit/internal/models"
	"aicruit/internal/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(app *app.App) *APIHandler {
	return &APIHandler{App: app}
}

// CreateJobRequest is the body of POST /api/v1/jobs.
type CreateJobRequest struct {
	Title       string   `json:"title" binding:"required"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Owners      []string `json:"owners"`
	Criteria    struct {
		NonNegotiable []string `json:"non_negotiable"`
		Additional    []string `json:"additional"`
	} `json:"evaluation_criteria"`
}

// SubmitCandidateRequest is the body of POST /api/v1/jobs/:jobId/candidates.
type SubmitCandidateRequest struct {
	Email         string `json:"email"`
	CVLink        string `json:"cv_link" binding:"required"`
	SubmitterRole string `json:"submitter_role"`
}

// EvaluateRequest is the optional body of the re-evaluation endpoint.
type EvaluateRequest struct {
	SubmitterRole string `json:"submitter_role"`
}

// RegisterRoutes mounts the API on router.
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", h.CreateJobHandler)
			jobs.GET("/:jobId", h.GetJobHandler)
			jobs.GET("/:jobId/progress", h.JobProgressHandler)
			jobs.POST("/:jobId/candidates", h.SubmitCandidateHandler)
			jobs.POST("/:jobId/candidates/:candidateId/evaluate", h.EvaluateCandidateHandler)
		}
	}
	router.GET("/health", h.HealthHandler)
}

func (h *APIHandler) CreateJobHandler(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	job, err := h.App.SubmissionService.CreateJob(c.Request.Context(), services.CreateJobParams{
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
		Owners:      req.Owners,
		Criteria: models.EvaluationCriteria{
			NonNegotiable: req.Criteria.NonNegotiable,
			Additional:    req.Criteria.Additional,
		},
	})
	if err != nil {
		respondWithError(c, "CreateJobHandler", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": job})
}

func (h *APIHandler) GetJobHandler(c *gin.Context) {
	job, err := h.App.Store.GetJobPosting(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondWithError(c, "GetJobHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": job})
}

func (h *APIHandler) JobProgressHandler(c *gin.Context) {
	p, err := h.App.ProgressService.JobProgress(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondWithError(c, "JobProgressHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// SubmitCandidateHandler stores a candidate and queues its evaluation. A
// queueing failure still answers 202 with the stored candidate, which then
// carries EVALUATION_PENDING.
func (h *APIHandler) SubmitCandidateHandler(c *gin.Context) {
	var req SubmitCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.App.SubmissionService.SubmitCandidate(c.Request.Context(), services.SubmitCandidateParams{
		JobID:         c.Param("jobId"),
		Email:         req.Email,
		CVLink:        req.CVLink,
		SubmitterRole: req.SubmitterRole,
	})
	if err != nil && res == nil {
		respondWithError(c, "SubmitCandidateHandler", err)
		return
	}
	resp := gin.H{"data": res}
	if err != nil {
		log.WithError(err).WithField("job_id", c.Param("jobId")).Warn("Candidate stored but evaluation not queued")
		resp["warning"] = "evaluation could not be queued; candidate is marked " + models.FlagEvaluationPending
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *APIHandler) EvaluateCandidateHandler(c *gin.Context) {
	var req EvaluateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	taskID, err := h.App.SubmissionService.Reevaluate(c.Request.Context(), c.Param("jobId"), c.Param("candidateId"), req.SubmitterRole)
	if err != nil {
		respondWithError(c, "EvaluateCandidateHandler", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"task_id": taskID}})
}

// HealthHandler reports store connectivity.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	if err := h.App.Store.Ping(c.Request.Context()); err != nil {
		Unavailable(c, "store ping failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
