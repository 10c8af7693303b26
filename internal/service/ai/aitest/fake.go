// Package aitest provides a scripted chat model for tests.
package aitest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Call records one Generate invocation.
type Call struct {
	Messages []*schema.Message
	Options  *model.Options
}

// FakeModel answers Generate with queued errors first, then with Reply (or an echo of the
// last message when Reply is nil).
type FakeModel struct {
	mu    sync.Mutex
	calls []Call
	errs  []error
	Reply func(messages []*schema.Message) string
}

func (f *FakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]*schema.Message, len(input))
	for i, m := range input {
		c := *m
		copied[i] = &c
	}
	f.calls = append(f.calls, Call{Messages: copied, Options: model.GetCommonOptions(&model.Options{}, opts...)})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	content := ""
	if f.Reply != nil {
		content = f.Reply(input)
	} else if len(input) > 0 {
		content = fmt.Sprintf("echo: %s", input[len(input)-1].Content)
	}
	return schema.AssistantMessage(content, nil), nil
}

func (f *FakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

// FailNext queues errors returned by the next Generate calls, in order.
func (f *FakeModel) FailNext(errs ...error) {
	f.mu.Lock()
	f.errs = append(f.errs, errs...)
	f.mu.Unlock()
}

func (f *FakeModel) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeModel) LastCall() (Call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Call{}, false
	}
	return f.calls[len(f.calls)-1], true
}
