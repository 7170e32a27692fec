package prompt

import (
	"context"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/mock"
)

// MockPrompter is a mock implementation of Prompter for testing.
type MockPrompter struct {
	mock.Mock
}

var _ contract.Prompter = &MockPrompter{} // Compile-time check

// Ask implements the Prompter interface.
func (m *MockPrompter) Ask(ctx context.Context, q schema.Question, canGoBack bool) (contract.PromptAnswer, error) {
	args := m.Called(ctx, q, canGoBack)
	return args.Get(0).(contract.PromptAnswer), args.Error(1)
}

// PickStep implements the Prompter interface.
func (m *MockPrompter) PickStep(ctx context.Context, history *schema.AnswerHistory) (int, error) {
	args := m.Called(ctx, history)
	return args.Int(0), args.Error(1)
}
