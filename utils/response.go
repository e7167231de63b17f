package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// User-facing messages. The gallery shows them verbatim in a toast.
const (
	MsgNoImage        = "No se subió ninguna imagen"
	MsgMissingFields  = "Faltan datos"
	MsgBadCategory    = "Categoría no válida"
	MsgBadPath        = "Datos inválidos"
	MsgTooLarge       = "La imagen excede el tamaño máximo permitido"
	MsgNotFound       = "Archivo no encontrado"
	MsgUploadFailed   = "Error al procesar la imagen"
	MsgListFailed     = "Error al listar las imágenes"
	MsgDeleteFailed   = "No se pudo eliminar el archivo"
	MsgRouteNotFound  = "Ruta no encontrada"
	MsgTooManyRequest = "Demasiadas solicitudes, intenta más tarde"
)

// Success writes {"success": true} merged with extra fields.
func Success(ctx *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	ctx.JSON(http.StatusOK, body)
}

// Fail writes {"error": message} with the given status code.
func Fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"error": message})
}

// AbortFail is Fail for middleware: later handlers do not run.
func AbortFail(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": message})
}
