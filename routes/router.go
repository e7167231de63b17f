package routes

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cppla/imghost/config"
	"github.com/cppla/imghost/controllers"
	"github.com/cppla/imghost/middleware"
	"github.com/cppla/imghost/services"
	"github.com/cppla/imghost/storage"
	"github.com/cppla/imghost/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, store *storage.Store, log *zap.Logger) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Access log goes to its own rolling file; fall back to the app logger.
	accessLog := log
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			accessLog = gl
		} else {
			log.Warn("gin log file unavailable, using application logger", zap.Error(err))
		}
	}
	r.Use(ginzap.GinzapWithConfig(accessLog, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health"},
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{zap.String("request_id", c.GetString(middleware.ContextRequestIDKey))}
		},
	}))
	r.Use(ginzap.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Bodies are capped per route; the multipart parser must not buffer more in memory.
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	imageService := services.NewImageService(store, cfg.ListedProjectTypes, log)
	imageController := controllers.NewImageController(imageService, cfg.MaxUploadBytes(), log)
	configController := controllers.NewConfigController(cfg)
	limit := middleware.RateLimit(cfg.RateLimitPerMinute)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/public-config", configController.GetPublicConfig)

	upload := r.Group("/upload")
	upload.POST("", limit, imageController.Upload)
	upload.GET("/list", imageController.List)
	upload.DELETE("/delete", limit, imageController.Delete)

	r.StaticFS("/images", store.HTTPFileSystem())

	r.NoRoute(galleryFallback(cfg.PublicDir, cfg.ImagesRoot))

	return r
}

// galleryFallback serves the gallery's static assets from publicDir. API
// misses, missing files and anything under imagesRoot get a JSON 404;
// stored images are only reachable through /images.
func galleryFallback(publicDir, imagesRoot string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		p := path.Clean("/" + ctx.Request.URL.Path)
		readOnly := ctx.Request.Method == http.MethodGet || ctx.Request.Method == http.MethodHead
		if !readOnly || publicDir == "" || hasPathPrefix(p, "/upload") || hasPathPrefix(p, "/images") ||
			strings.HasSuffix(p, storage.StagingSuffix) {
			utils.Fail(ctx, http.StatusNotFound, utils.MsgRouteNotFound)
			return
		}

		target := filepath.Join(publicDir, filepath.FromSlash(p))
		if within(imagesRoot, target) {
			utils.Fail(ctx, http.StatusNotFound, utils.MsgRouteNotFound)
			return
		}
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, "index.html")
		}
		if info, err := os.Stat(target); err != nil || !info.Mode().IsRegular() {
			utils.Fail(ctx, http.StatusNotFound, utils.MsgRouteNotFound)
			return
		}
		ctx.Status(http.StatusOK)
		ctx.File(target)
	}
}

// hasPathPrefix reports whether p is prefix itself or lies below it.
func hasPathPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// within reports whether target resolves to root or somewhere below it.
func within(root, target string) bool {
	if root == "" {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
