package models

// DocumentType is the editor family that opens a file.
type DocumentType string

const (
	DocumentTypeWord  DocumentType = "word"
	DocumentTypeCell  DocumentType = "cell"
	DocumentTypeSlide DocumentType = "slide"
	DocumentTypePDF   DocumentType = "pdf"
)

type EditorMode string

const (
	ModeEdit EditorMode = "edit"
	ModeView EditorMode = "view"
)

type SessionDocument struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	FileType string `json:"fileType"`
	Key      string `json:"key"`
}

type Customization struct {
	Autosave bool `json:"autosave"`
	Chat     bool `json:"chat"`
	Feedback bool `json:"feedback"`
	Comments bool `json:"comments"`
}

type EditorConfig struct {
	Mode          EditorMode    `json:"mode"`
	CallbackURL   string        `json:"callbackUrl"`
	Customization Customization `json:"customization"`
}

// SessionConfig is the editor descriptor; it is also the payload of the
// session token.
type SessionConfig struct {
	Document     SessionDocument `json:"document"`
	DocumentType DocumentType    `json:"documentType"`
	EditorConfig EditorConfig    `json:"editorConfig"`
}

// Session is a SessionConfig together with its signed token, serialized
// flat as the editor widget expects.
type Session struct {
	SessionConfig
	Token string `json:"token"`
}
