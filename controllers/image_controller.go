package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/imghost/imaging"
	"github.com/cppla/imghost/services"
	"github.com/cppla/imghost/utils"
)

// ImageController exposes upload, listing and deletion over HTTP.
type ImageController struct {
	svc            services.ImageService
	maxUploadBytes int64
	log            *zap.Logger
}

func NewImageController(svc services.ImageService, maxUploadBytes int64, log *zap.Logger) *ImageController {
	return &ImageController{svc: svc, maxUploadBytes: maxUploadBytes, log: log}
}

type deleteRequest struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

// Upload handles POST /upload: multipart field "image" plus "category"
// and optional "type".
func (c *ImageController) Upload(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes)

	header, err := ctx.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			utils.Fail(ctx, http.StatusBadRequest, utils.MsgTooLarge)
			return
		}
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgNoImage)
		return
	}

	file, err := header.Open()
	if err != nil {
		c.log.Error("failed to open multipart file", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.MsgUploadFailed)
		return
	}
	defer file.Close()

	uploaded, err := c.svc.Upload(ctx.Request.Context(), services.UploadInput{
		Filename: header.Filename,
		Category: ctx.PostForm("category"),
		Type:     ctx.PostForm("type"),
		Body:     file,
	})
	if err != nil {
		c.uploadError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"url": uploaded.URL})
}

func (c *ImageController) uploadError(ctx *gin.Context, err error) {
	var rej *imaging.RejectionError
	switch {
	case errors.As(err, &rej):
		utils.Fail(ctx, http.StatusBadRequest, rej.Reason)
	case errors.Is(err, services.ErrMissingFile):
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgNoImage)
	case errors.Is(err, services.ErrMissingFields):
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgMissingFields)
	case errors.Is(err, services.ErrInvalidCategory):
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgBadCategory)
	case errors.Is(err, services.ErrInvalidPath):
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgBadPath)
	default:
		c.log.Error("upload failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.MsgUploadFailed)
	}
}

// List handles GET /upload/list?category=profile|projects.
func (c *ImageController) List(ctx *gin.Context) {
	images, err := c.svc.List(ctx.Request.Context(), ctx.Query("category"))
	if err != nil {
		c.log.Error("list failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.MsgListFailed)
		return
	}
	ctx.JSON(http.StatusOK, images)
}

// Delete handles DELETE /upload/delete with a JSON body.
func (c *ImageController) Delete(ctx *gin.Context) {
	var req deleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgMissingFields)
		return
	}

	err := c.svc.Delete(ctx.Request.Context(), req.Category, req.Type, req.Filename)
	switch {
	case err == nil:
		utils.Success(ctx, nil)
	case errors.Is(err, services.ErrMissingFields):
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgMissingFields)
	case errors.Is(err, services.ErrInvalidPath):
		utils.Fail(ctx, http.StatusBadRequest, utils.MsgBadPath)
	case errors.Is(err, services.ErrNotFound):
		utils.Fail(ctx, http.StatusNotFound, utils.MsgNotFound)
	default:
		c.log.Error("delete failed", zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.MsgDeleteFailed)
	}
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	// mime/multipart does not always wrap the reader error.
	return strings.Contains(err.Error(), "request body too large")
}
