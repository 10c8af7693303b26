package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepchat/internal/apperr"
	"deepchat/internal/document"
	"deepchat/internal/models"
	"deepchat/internal/service/ai"
	"deepchat/internal/service/ai/aitest"
	"deepchat/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory, *aitest.FakeModel) {
	t.Helper()
	mem := store.NewMemory()
	fake := &aitest.FakeModel{}
	extractor, err := document.NewExtractor(context.Background(), 0)
	require.NoError(t, err)
	client := ai.NewClient(fake, "test-model", 2, ai.WithBackoff(0))
	return NewService(mem, mem, extractor, client, zerolog.Nop()), mem, fake
}

func TestChatCreatesSessionAndAppendsExchange(t *testing.T) {
	svc, mem, fake := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, "s1", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", resp)

	history, err := mem.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []models.Turn{models.UserTurn("hello"), models.AssistantTurn("echo: hello")}, history)

	call, _ := fake.LastCall()
	require.Len(t, call.Messages, 1)
	assert.Equal(t, schema.User, call.Messages[0].Role)
}

func TestChatSendsHistoryInOrder(t *testing.T) {
	svc, mem, fake := newTestService(t)
	ctx := context.Background()

	_, err := svc.Chat(ctx, "s1", "one", nil)
	require.NoError(t, err)
	_, err = svc.Chat(ctx, "s1", "two", nil)
	require.NoError(t, err)

	history, _ := mem.History(ctx, "s1")
	assert.Len(t, history, 4)

	_, err = svc.Chat(ctx, "s1", "three", nil)
	require.NoError(t, err)
	call, _ := fake.LastCall()
	require.Len(t, call.Messages, 5)
	roles := make([]schema.RoleType, 0, 5)
	for _, m := range call.Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []schema.RoleType{schema.User, schema.Assistant, schema.User, schema.Assistant, schema.User}, roles)
	assert.Equal(t, "three", call.Messages[4].Content)
}

func TestChatFailureKeepsEmptySession(t *testing.T) {
	svc, mem, fake := newTestService(t)
	fake.FailNext(errors.New("x"), errors.New("x"), errors.New("upstream down"))

	_, err := svc.Chat(context.Background(), "s1", "hello", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.True(t, mem.HasSession("s1"))
	history, _ := mem.History(context.Background(), "s1")
	assert.Empty(t, history)
}

func TestChatValidation(t *testing.T) {
	svc, _, fake := newTestService(t)
	bad := 3.0

	_, err := svc.Chat(context.Background(), " ", "hello", nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Chat(context.Background(), "s1", "", nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.EqualError(t, err, "message is required")

	_, err = svc.Chat(context.Background(), "s1", "hello", &models.ModelSettings{Temperature: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, fake.Calls())
}

func TestChatUsesSettings(t *testing.T) {
	svc, _, fake := newTestService(t)
	temp, topP, maxTokens := 0.7, 0.5, 256

	_, err := svc.Chat(context.Background(), "s1", "hello", &models.ModelSettings{Temperature: &temp, TopP: &topP, MaxTokens: &maxTokens})
	require.NoError(t, err)
	call, _ := fake.LastCall()
	assert.InDelta(t, 0.7, float64(*call.Options.Temperature), 1e-6)
	assert.InDelta(t, 0.5, float64(*call.Options.TopP), 1e-6)
	assert.Equal(t, 256, *call.Options.MaxTokens)
}

func TestUploadedFilesAppearInPrompt(t *testing.T) {
	svc, mem, fake := newTestService(t)
	ctx := context.Background()

	files, err := svc.Upload(ctx, "s1", []document.Upload{{Filename: "report.pdf", Body: strings.NewReader("revenue grew")}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "PDF file content: report.pdf", files[0].Content)

	_, err = svc.Chat(ctx, "s1", "summarize", nil)
	require.NoError(t, err)
	call, _ := fake.LastCall()
	last := call.Messages[len(call.Messages)-1].Content
	assert.Equal(t, "summarize\n\nUploaded file contents:\nFilename: report.pdf\nContent: revenue grew\n\n", last)

	// history keeps the message as typed
	history, _ := mem.History(ctx, "s1")
	assert.Equal(t, "summarize", history[0].Content)
}

func TestUploadRejectsBatch(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "s1", []document.Upload{
		{Filename: "ok.pdf", Body: strings.NewReader("a")},
		{Filename: "report.txt", Body: strings.NewReader("b")},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	files, _ := mem.Files(ctx, "s1")
	assert.Empty(t, files)
}

func TestClearSessionKeepsFiles(t *testing.T) {
	svc, mem, fake := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "s1", []document.Upload{{Filename: "a.doc", Body: strings.NewReader("body")}})
	require.NoError(t, err)
	_, err = svc.Chat(ctx, "s1", "hi", nil)
	require.NoError(t, err)

	require.NoError(t, svc.ClearSession(ctx, "s1"))
	require.NoError(t, svc.ClearSession(ctx, "unknown"))

	_, err = svc.Chat(ctx, "s1", "again", nil)
	require.NoError(t, err)
	call, _ := fake.LastCall()
	require.Len(t, call.Messages, 1)
	assert.Contains(t, call.Messages[0].Content, "Filename: a.doc")

	history, _ := mem.History(ctx, "s1")
	assert.Len(t, history, 2)
}

func TestBuildMessagesWithoutFiles(t *testing.T) {
	msgs := BuildMessages([]models.Turn{models.UserTurn("q"), models.AssistantTurn("a")}, "next", nil)
	require.Len(t, msgs, 3)
	assert.Equal(t, "next", msgs[2].Content)
	assert.Equal(t, "", RenderFiles(nil))
}
