package v1

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go-jobboard-backend/internal/delivery/http/middleware"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/logger"
	"go-jobboard-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUC domain.ProfileUsecase
	limiter   *security.UploadLimiter
	maxBytes  int64
}

// NewProfileHandler registers the seeker's own profile routes. limiter may be nil.
func NewProfileHandler(protected *gin.RouterGroup, profileUC domain.ProfileUsecase, limiter *security.UploadLimiter, maxBytes int64) {
	handler := &ProfileHandler{profileUC: profileUC, limiter: limiter, maxBytes: maxBytes}

	profiles := protected.Group("/profiles/me", middleware.RequireRole(domain.RoleSeeker))
	{
		profiles.GET("/profile/", handler.Get)
		profiles.PATCH("/profile/", handler.Patch)
	}
}

// GetProfile godoc
// @Summary      Get own profile
// @Description  Seeker profile, created empty on first access
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  domain.Profile
// @Failure      403  {object}  response.Response
// @Router       /profiles/me/profile/ [get]
// @Security     BearerAuth
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profileUC.GetProfile(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// PatchProfile godoc
// @Summary      Update own profile
// @Description  JSON replaces the given lists. multipart/form-data uploads exactly one of resume or profile_picture.
// @Tags         profiles
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        body             body      domain.ProfilePatch  false  "Lists to replace"
// @Param        resume           formData  file                 false  "Resume (pdf, doc, docx)"
// @Param        profile_picture  formData  file                 false  "Picture (jpg, png, gif)"
// @Success      200              {object}  domain.Profile
// @Failure      400              {object}  response.Response
// @Failure      429              {object}  response.Response
// @Router       /profiles/me/profile/ [patch]
// @Security     BearerAuth
func (h *ProfileHandler) Patch(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.upload(c)
		return
	}

	var req domain.ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	profile, err := h.profileUC.UpdateProfile(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) upload(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	if h.limiter != nil {
		allowed, retry, err := h.limiter.AllowUpload(c.Request.Context(), c.ClientIP(), strconv.FormatInt(actor.ID, 10))
		if err != nil {
			logger.Log.Warn("upload limiter error", "error", err)
		}
		if !allowed {
			if secs := int(retry.Seconds()); secs > 0 {
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			c.Error(apperror.New(http.StatusTooManyRequests, "Too many uploads. Please try again later.", nil))
			return
		}
	}

	// multipart overhead on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	if err := c.Request.ParseMultipartForm(h.maxBytes); err != nil {
		c.Error(apperror.BadRequest("Invalid multipart body or file too large"))
		return
	}

	var slot domain.FileSlot
	var header *multipart.FileHeader
	for _, candidate := range []domain.FileSlot{domain.SlotResume, domain.SlotProfilePicture} {
		files := c.Request.MultipartForm.File[string(candidate)]
		if len(files) == 0 {
			continue
		}
		if header != nil || len(files) > 1 {
			c.Error(apperror.BadRequest("Upload exactly one file: resume or profile_picture"))
			return
		}
		slot, header = candidate, files[0]
	}
	if header == nil {
		c.Error(apperror.BadRequest("No file was submitted. Use the resume or profile_picture field."))
		return
	}

	f, err := header.Open()
	if err != nil {
		c.Error(apperror.BadRequest("Failed to read uploaded file"))
		return
	}
	defer f.Close()

	profile, err := h.profileUC.UploadFile(c.Request.Context(), actor, &domain.Upload{
		Slot:     slot,
		Filename: header.Filename,
		Size:     header.Size,
		Body:     f,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
