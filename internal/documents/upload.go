package documents

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"mintslip-workers/internal/common/errors"
)

type UploadKind string

const (
	UploadLogo   UploadKind = "logo"
	UploadResume UploadKind = "resume"
)

const (
	contentTypePNG  = "image/png"
	contentTypeJPEG = "image/jpeg"
	contentTypePDF  = "application/pdf"
	contentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var zipMagic = []byte("PK\x03\x04")

// Upload is a validated file with its detected content type.
type Upload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ValidateUpload checks the type and size of an uploaded file before it is
// used or sent anywhere. The type is taken from the bytes, not the client.
func ValidateUpload(kind UploadKind, fileName string, content []byte, maxBytes int64) (*Upload, error) {
	if len(content) == 0 {
		return nil, errors.NewFileRejectedError("file is empty")
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, errors.NewFileRejectedError(fmt.Sprintf("file is %d bytes, limit is %d", len(content), maxBytes))
	}

	detected := http.DetectContentType(content)
	ext := strings.ToLower(filepath.Ext(fileName))

	var contentType string
	switch kind {
	case UploadLogo:
		switch detected {
		case contentTypePNG, contentTypeJPEG:
			contentType = detected
		}
	case UploadResume:
		switch {
		case detected == contentTypePDF:
			contentType = contentTypePDF
		case ext == ".docx" && bytes.HasPrefix(content, zipMagic):
			contentType = contentTypeDOCX
		}
	default:
		return nil, errors.NewFileRejectedError(fmt.Sprintf("unknown upload kind %q", kind))
	}

	if contentType == "" {
		return nil, errors.NewFileRejectedError(fmt.Sprintf("%s upload of type %s is not allowed", kind, detected))
	}
	return &Upload{FileName: filepath.Base(fileName), ContentType: contentType, Content: content}, nil
}

// DataURI encodes the upload for inline use in a template.
func (u *Upload) DataURI() string {
	return "data:" + u.ContentType + ";base64," + base64.StdEncoding.EncodeToString(u.Content)
}
