package assistant

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"deepchat/internal/models"
)

const filesHeader = "\n\nUploaded file contents:\n"

// BuildMessages converts prior turns to role-tagged messages and appends the new user
// message, extended with the session's files.
func BuildMessages(history []models.Turn, message string, files []models.UploadedFile) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case models.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return append(messages, schema.UserMessage(message+RenderFiles(files)))
}

// RenderFiles lists each file's name and stored text; no files renders nothing.
func RenderFiles(files []models.UploadedFile) string {
	if len(files) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(filesHeader)
	for _, f := range files {
		b.WriteString("Filename: ")
		b.WriteString(f.Filename)
		b.WriteString("\nContent: ")
		b.WriteString(f.FileContent)
		b.WriteString("\n\n")
	}
	return b.String()
}
