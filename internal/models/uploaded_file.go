package models

// UploadedFile represents a document attached to a session.
type UploadedFile struct {
	Filename string `json:"filename"`
	// Content is a placeholder description of the document.
	Content string `json:"content"`
	// FileContent is the decoded, truncated upload body appended to prompts.
	FileContent string `json:"file_content"`
}
