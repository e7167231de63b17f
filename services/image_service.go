package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/imghost/imaging"
	"github.com/cppla/imghost/models"
	"github.com/cppla/imghost/storage"
	"github.com/cppla/imghost/utils"
)

var (
	ErrMissingFile     = errors.New("no image uploaded")
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidPath     = errors.New("invalid path")
	ErrNotFound        = errors.New("image not found")
)

// Attempts at finding a free generated name before giving up.
const saveAttempts = 3

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadInput is one uploaded file plus its form fields.
type UploadInput struct {
	Filename string
	Category string
	Type     string
	Body     io.Reader
}

type ImageService interface {
	Upload(ctx context.Context, in UploadInput) (*models.UploadedFile, error)
	List(ctx context.Context, category string) ([]models.ImageDescriptor, error)
	Delete(ctx context.Context, category, typ, filename string) error
}

type imageService struct {
	store        *storage.Store
	projectTypes []string
	log          *zap.Logger
	now          func() time.Time
}

// NewImageService wires the store into upload, listing and deletion.
// projectTypes are the projects subdirectories the listing shows.
func NewImageService(store *storage.Store, projectTypes []string, log *zap.Logger) ImageService {
	return &imageService{
		store:        store,
		projectTypes: utils.Unique(projectTypes),
		log:          log,
		now:          time.Now,
	}
}

// Upload stages the file, validates it from disk and either publishes it
// under its generated name or removes it. A rejected upload leaves nothing
// in the listing even if its removal fails.
func (s *imageService) Upload(ctx context.Context, in UploadInput) (*models.UploadedFile, error) {
	if in.Body == nil {
		return nil, ErrMissingFile
	}
	if in.Category == "" {
		return nil, ErrMissingFields
	}
	category := models.ParseCategory(in.Category)
	if !category.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}

	typ := in.Type
	if category == models.CategoryProfile {
		typ = ""
	}
	if typ != "" && !storage.ValidSegment(typ) {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidPath, typ)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, size, err := s.stage(category, typ, in)
	if err != nil {
		return nil, err
	}
	staged := name + storage.StagingSuffix

	meta, err := s.probe(category, typ, staged)
	if err != nil {
		s.discard(category, typ, staged)
		if errors.Is(err, imaging.ErrUnreadable) {
			s.log.Info("upload rejected: unreadable image",
				zap.String("original", in.Filename),
				zap.Error(err))
			return nil, &imaging.RejectionError{Reason: imaging.ReasonUnreadable}
		}
		return nil, err
	}

	if err := imaging.Validate(category, size, meta); err != nil {
		s.discard(category, typ, staged)
		s.log.Info("upload rejected",
			zap.String("category", category.String()),
			zap.String("type", typ),
			zap.Int64("size", size),
			zap.Int("width", meta.Width),
			zap.Int("height", meta.Height),
			zap.Error(err))
		return nil, err
	}

	if err := s.store.Rename(category.String(), typ, staged, name); err != nil {
		s.discard(category, typ, staged)
		return nil, fmt.Errorf("publish upload: %w", err)
	}

	file := &models.UploadedFile{
		Name:     name,
		URL:      models.ImageURL(category, typ, name),
		Category: category,
		Type:     typ,
		Size:     size,
		Width:    meta.Width,
		Height:   meta.Height,
		Format:   meta.Format,
	}
	s.log.Info("image stored",
		zap.String("url", file.URL),
		zap.Int64("size", size),
		zap.String("format", meta.Format))
	return file, nil
}

func (s *imageService) stage(category models.Category, typ string, in UploadInput) (string, int64, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		name := utils.UniqueFilename(in.Filename, s.now())
		size, err := s.store.Save(category.String(), typ, name+storage.StagingSuffix, in.Body)
		if errors.Is(err, storage.ErrExists) {
			continue
		}
		if err != nil {
			return "", 0, fmt.Errorf("stage upload: %w", err)
		}
		return name, size, nil
	}
	return "", 0, fmt.Errorf("stage upload: no free name after %d attempts: %w", saveAttempts, storage.ErrExists)
}

func (s *imageService) probe(category models.Category, typ, name string) (imaging.Metadata, error) {
	f, err := s.store.Open(category.String(), typ, name)
	if err != nil {
		return imaging.Metadata{}, fmt.Errorf("open staged upload: %w", err)
	}
	defer f.Close()
	return imaging.Probe(f)
}

// discard removes a staged file. Failures are logged; the staging sweeper
// collects whatever is left.
func (s *imageService) discard(category models.Category, typ, name string) {
	err := s.store.Remove(category.String(), typ, name)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("failed to remove rejected upload",
			zap.String("category", category.String()),
			zap.String("type", typ),
			zap.String("name", name),
			zap.Error(err))
	}
}

// List returns descriptors for the requested category, or for every
// listed directory when category is empty. Unknown categories list nothing.
func (s *imageService) List(ctx context.Context, category string) ([]models.ImageDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := []models.ImageDescriptor{}
	var err error
	switch models.ParseCategory(category) {
	case "":
		if result, err = s.listDir(result, models.CategoryProfile, ""); err != nil {
			return nil, err
		}
		return s.listProjects(result)
	case models.CategoryProfile:
		return s.listDir(result, models.CategoryProfile, "")
	case models.CategoryProjects:
		return s.listProjects(result)
	default:
		return result, nil
	}
}

func (s *imageService) listProjects(dst []models.ImageDescriptor) ([]models.ImageDescriptor, error) {
	var err error
	for _, typ := range s.projectTypes {
		if dst, err = s.listDir(dst, models.CategoryProjects, typ); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (s *imageService) listDir(dst []models.ImageDescriptor, category models.Category, typ string) ([]models.ImageDescriptor, error) {
	files, err := s.store.List(category.String(), typ)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", category, typ, err)
	}
	for _, f := range files {
		if !imageExts[strings.ToLower(filepath.Ext(f.Name()))] {
			continue
		}
		dst = append(dst, models.NewImageDescriptor(category, typ, f.Name()))
	}
	return dst, nil
}

// Delete removes one stored image. Deletion is immediate and cannot be undone.
func (s *imageService) Delete(ctx context.Context, category, typ, filename string) error {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(filename) == "" {
		return ErrMissingFields
	}
	if !storage.ValidSegment(category) || !storage.ValidSegment(filename) || (typ != "" && !storage.ValidSegment(typ)) {
		return fmt.Errorf("%w: %s/%s/%s", ErrInvalidPath, category, typ, filename)
	}
	if strings.HasSuffix(filename, storage.StagingSuffix) {
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.Remove(category, typ, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete image: %w", err)
	}
	s.log.Info("image deleted",
		zap.String("category", category),
		zap.String("type", typ),
		zap.String("name", filename))
	return nil
}
