package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/imghost/config"
)

// ConfigController serves the part of the configuration the gallery needs in the browser.
type ConfigController struct {
	imageServerURL string
}

func NewConfigController(cfg config.AppConfig) *ConfigController {
	return &ConfigController{imageServerURL: cfg.ImageServerURL}
}

// GetPublicConfig returns the base URL used to build absolute copy-to-clipboard links.
func (c *ConfigController) GetPublicConfig(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"IMAGE_SERVER_URL": c.imageServerURL,
	})
}
