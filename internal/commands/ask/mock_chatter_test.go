package ask

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/muratoffalex/emotebot/internal/ai"
)

type MockChatter struct {
	mock.Mock
}

type MockChatter_Expecter struct {
	mock *mock.Mock
}

func NewMockChatter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChatter {
	m := &MockChatter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatter) EXPECT() *MockChatter_Expecter {
	return &MockChatter_Expecter{mock: &m.Mock}
}

func (m *MockChatter) Chat(ctx context.Context, messages []ai.Message, user string) (ai.ChatResult, error) {
	ret := m.Called(ctx, messages, user)
	return ret.Get(0).(ai.ChatResult), ret.Error(1)
}

func (e *MockChatter_Expecter) Chat(ctx, messages, user any) *mock.Call {
	return e.mock.On("Chat", ctx, messages, user)
}
