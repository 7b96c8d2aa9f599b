package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"profile-portal/internal/storage"
)

// ErrUnsupportedImageType is returned for uploads whose declared file type is not an image.
var ErrUnsupportedImageType = errors.New("unsupported image type")

// imageExtensions are the accepted upload extensions, compared case-insensitively.
var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpe": {}, "jpeg": {}, "png": {}, "gif": {}, "svg": {}, "bmp": {}, "webp": {},
}

// sniffLen is how much of a stored picture is read to detect its content type.
const sniffLen = 3072

// Picture is a readable profile picture.
type Picture struct {
	Body        io.ReadCloser
	ContentType string
	Placeholder bool
}

// PictureService stores and serves profile pictures keyed by username.
type PictureService interface {
	Upload(ctx context.Context, username, filename string, body io.Reader) error
	// Open never fails: missing or unreadable pictures fall back to the placeholder.
	Open(ctx context.Context, username string) *Picture
}

type pictureService struct {
	store           storage.Service
	placeholder     []byte
	placeholderType string
	log             logrus.FieldLogger
}

func NewPictureService(store storage.Service, placeholder []byte, placeholderType string, logger logrus.FieldLogger) PictureService {
	if logger == nil {
		logger = logrus.New()
	}
	return &pictureService{
		store:           store,
		placeholder:     placeholder,
		placeholderType: placeholderType,
		log:             logger,
	}
}

// AllowedImage reports whether filename carries an accepted image extension.
func AllowedImage(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	_, ok := imageExtensions[ext]
	return ok
}

func (s *pictureService) Upload(ctx context.Context, username, filename string, body io.Reader) error {
	if !AllowedImage(filename) {
		return fmt.Errorf("%w: %q", ErrUnsupportedImageType, filename)
	}
	if err := s.store.Put(ctx, username, body); err != nil {
		return fmt.Errorf("store picture: %w", err)
	}
	s.log.WithField("username", username).Info("profile picture stored")
	return nil
}

func (s *pictureService) Open(ctx context.Context, username string) *Picture {
	rc, err := s.store.Open(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrInvalidKey) {
			s.log.WithError(err).WithField("username", username).Warn("open picture, serving placeholder")
		}
		return s.placeholderPicture()
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		rc.Close()
		s.log.WithError(err).WithField("username", username).Warn("read picture, serving placeholder")
		return s.placeholderPicture()
	}
	head = head[:n]

	return &Picture{
		Body: struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), rc), rc},
		ContentType: mimetype.Detect(head).String(),
	}
}

func (s *pictureService) placeholderPicture() *Picture {
	return &Picture{
		Body:        io.NopCloser(bytes.NewReader(s.placeholder)),
		ContentType: s.placeholderType,
		Placeholder: true,
	}
}
