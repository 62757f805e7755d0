package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	mimeType := mtype.String()
	extension := mtype.Extension()

	log.Debug().Str("mime", mimeType).Str("ext", extension).Str("file", filePath).Msg("detected file type")

	info := &FileTypeInfo{
		MIMEType:  mimeType,
		Extension: extension,
	}

	switch {
	case mimeType == "application/pdf" || strings.HasPrefix(mimeType, "application/pdf;"):
		info.IsPDF = true
		info.Description = "PDF document"
	default:
		info.Description = mimeType
	}

	return info, nil
}

// EnsurePDF returns an error unless the file's magic bytes identify a PDF.
// Renaming a .docx to .pdf must fail here, before the renderer touches it.
func (d *Detector) EnsurePDF(filePath string) error {
	info, err := d.Detect(filePath)
	if err != nil {
		return err
	}
	if !info.IsPDF {
		return fmt.Errorf("unsupported input type %s (expected PDF)", info.MIMEType)
	}
	return nil
}
