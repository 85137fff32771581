package services

import (
	"strings"

	"github.com/dmitrijs2005/officebridge/internal/server/models"
)

// FileType is the lowercased text after the last '.', or "" when the name
// has no dot.
func FileType(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// DocumentTypeFor maps a file type to an editor family. Unknown types open
// in the pdf viewer family.
func DocumentTypeFor(fileType string) models.DocumentType {
	switch fileType {
	case "doc", "docx":
		return models.DocumentTypeWord
	case "xls", "xlsx":
		return models.DocumentTypeCell
	case "ppt", "pptx":
		return models.DocumentTypeSlide
	default:
		return models.DocumentTypePDF
	}
}

// ModeFor opens pdf files read-only; everything else is editable.
func ModeFor(fileType string) models.EditorMode {
	if fileType == "pdf" {
		return models.ModeView
	}
	return models.ModeEdit
}
