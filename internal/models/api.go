package models

// Wire types of the document question-answering service.

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status           string `json:"status,omitempty"`
	APIKeyConfigured bool   `json:"api_key_configured"`
}

// ManualsResponse is returned by GET /manuals.
type ManualsResponse struct {
	Manuals []string `json:"manuals"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Filename string `json:"filename"`
	Message  string `json:"message,omitempty"`
}

// AskRequest is the body of POST /ask. ManualName is nil when no document
// is scoped, which encodes as JSON null.
type AskRequest struct {
	Question   string  `json:"question"`
	ManualName *string `json:"manual_name"`
}

// AskResponse is returned by POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
	Source string `json:"source,omitempty"`
}

// ErrorResponse is the error envelope used by the service.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
