package imaging

import (
	"github.com/cppla/imghost/models"
)

const (
	ProfileSide     = 500
	ProfileMaxBytes = 500 * 1024
	ProjectMaxBytes = 1024 * 1024
)

// Rejection reasons, shown verbatim to gallery users.
const (
	ReasonProfileDimensions = "La imagen de perfil debe ser 500x500px"
	ReasonProfileSize       = "La imagen de perfil debe pesar máximo 500KB"
	ReasonProjectSize       = "La imagen de proyectos debe pesar máximo 1MB"
	ReasonUnreadable        = "No se pudo leer la imagen"
)

// RejectionError carries the human readable reason an upload was refused.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

func reject(reason string) error { return &RejectionError{Reason: reason} }

// Validate applies the category rules to an image of size bytes. Profile
// dimensions are checked before size. Categories without rules pass.
func Validate(category models.Category, size int64, meta Metadata) error {
	switch category {
	case models.CategoryProfile:
		if meta.Width != ProfileSide || meta.Height != ProfileSide {
			return reject(ReasonProfileDimensions)
		}
		if size > ProfileMaxBytes {
			return reject(ReasonProfileSize)
		}
	case models.CategoryProjects:
		if size > ProjectMaxBytes {
			return reject(ReasonProjectSize)
		}
	}
	return nil
}
