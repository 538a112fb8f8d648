// Package documents fabricates upload targets for resume files. The service
// never receives the file bytes itself.
package documents

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Signer produces an upload target for a named file
type Signer interface {
	SignUpload(ctx context.Context, filename string) (types.ResumeUpload, error)
	Name() string
}

// NewSigner returns a GCS signer when a bucket is configured and the
// placeholder signer otherwise.
func NewSigner(cfg config.DocumentsConfig) (Signer, error) {
	if cfg.GCS.Bucket == "" {
		return &PlaceholderSigner{Base: cfg.SignedURLBase}, nil
	}
	return NewGCSSigner(cfg.GCS)
}

// PlaceholderSigner builds a development URL under Base that no storage
// backend will honour
type PlaceholderSigner struct {
	Base string
}

// Name implements Signer
func (s *PlaceholderSigner) Name() string { return "placeholder" }

// SignUpload implements Signer
func (s *PlaceholderSigner) SignUpload(_ context.Context, filename string) (types.ResumeUpload, error) {
	fileID := uuid.NewString()
	return types.ResumeUpload{
		FileID:    fileID,
		SignedURL: fmt.Sprintf("%s/%s/%s?signature=dev", s.Base, fileID, filename),
	}, nil
}

// GCSSigner issues V4 signed PUT URLs for a Cloud Storage bucket
type GCSSigner struct {
	bucket         string
	googleAccessID string
	privateKey     []byte
	expiry         time.Duration
	now            func() time.Time
}

// NewGCSSigner loads the signing key from config
func NewGCSSigner(cfg config.GCSConfig) (*GCSSigner, error) {
	key := []byte(cfg.PrivateKey)
	if len(key) == 0 && cfg.PrivateKeyFile != "" {
		data, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"failed to read GCS private key file", err).WithContext("file", cfg.PrivateKeyFile)
		}
		key = data
	}
	if len(key) == 0 {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"documents.gcs.privateKey or privateKeyFile is required when a bucket is set", nil)
	}

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &GCSSigner{
		bucket:         cfg.Bucket,
		googleAccessID: cfg.GoogleAccessID,
		privateKey:     key,
		expiry:         expiry,
		now:            time.Now,
	}, nil
}

// Name implements Signer
func (s *GCSSigner) Name() string { return "gcs" }

// SignUpload implements Signer
func (s *GCSSigner) SignUpload(_ context.Context, filename string) (types.ResumeUpload, error) {
	fileID := uuid.NewString()
	object := ObjectName(fileID, filename)

	signed, err := storage.SignedURL(s.bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: s.googleAccessID,
		PrivateKey:     s.privateKey,
		Method:         "PUT",
		Scheme:         storage.SigningSchemeV4,
		Expires:        s.now().Add(s.expiry),
		ContentType:    ContentType(filename),
	})
	if err != nil {
		return types.ResumeUpload{}, errors.NewInternalError(errors.ErrCodeSigningFailed,
			"failed to sign resume upload URL", err).WithContext("bucket", s.bucket)
	}
	return types.ResumeUpload{FileID: fileID, SignedURL: signed}, nil
}

// ObjectName returns the bucket object key for an uploaded resume. Only the
// base name of filename is kept.
func ObjectName(fileID, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = "resume"
	}
	return fmt.Sprintf("resumes/%s/%s", fileID, base)
}

// ContentType guesses the upload content type from the file extension
func ContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
