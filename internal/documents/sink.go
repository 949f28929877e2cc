package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/pkg/file"
	"github.com/rs/zerolog"
)

var filePrefixes = map[models.DocumentKind]string{
	models.DocumentInvoice:      "facture",
	models.DocumentPrescription: "ordonnance",
}

// FileSink stores downloaded documents in a directory, from where the
// kiosk shell prints or shares them.
type FileSink struct {
	dir        string
	fileClient file.FileOperations
	logger     zerolog.Logger
	now        func() time.Time
}

// NewFileSink creates a FileSink writing into dir.
func NewFileSink(dir string, fileClient file.FileOperations, logger zerolog.Logger) *FileSink {
	return &FileSink{
		dir:        dir,
		fileClient: fileClient,
		logger:     logger,
		now:        time.Now,
	}
}

// Deliver writes data as <prefix>_<appointmentID>_<unix>.pdf.
func (s *FileSink) Deliver(ctx context.Context, appointmentID int, kind models.DocumentKind, data []byte) error {
	prefix, ok := filePrefixes[kind]
	if !ok {
		return fmt.Errorf("unknown document kind %q", kind)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty %s document for appointment %d", kind, appointmentID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%d_%d.pdf", prefix, appointmentID, s.now().Unix()))
	if err := s.fileClient.WriteFileRaw(path, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", kind, err)
	}

	hash, err := s.fileClient.GetFileHash(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to hash stored document")
	}
	s.logger.Info().Str("path", path).Str("sha256", hash).Int("size", len(data)).Msg("Document stored")
	return nil
}
