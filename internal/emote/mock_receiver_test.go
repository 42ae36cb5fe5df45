package emote

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockReceiver struct {
	mock.Mock
}

type MockReceiver_Expecter struct {
	mock *mock.Mock
}

func NewMockReceiver(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReceiver {
	m := &MockReceiver{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockReceiver) EXPECT() *MockReceiver_Expecter {
	return &MockReceiver_Expecter{mock: &m.Mock}
}

func (m *MockReceiver) result(method string, ctx context.Context, payload any) (bool, error) {
	ret := m.MethodCalled(method, ctx, payload)
	return ret.Bool(0), ret.Error(1)
}

func (m *MockReceiver) CreateMessage(ctx context.Context, p MessagePayload) (bool, error) {
	return m.result("CreateMessage", ctx, p)
}

func (m *MockReceiver) UpdateMessage(ctx context.Context, p MessagePayload) (bool, error) {
	return m.result("UpdateMessage", ctx, p)
}

func (m *MockReceiver) DeleteMessage(ctx context.Context, p MessagePayload) (bool, error) {
	return m.result("DeleteMessage", ctx, p)
}

func (m *MockReceiver) CreateReaction(ctx context.Context, p ReactionPayload) (bool, error) {
	return m.result("CreateReaction", ctx, p)
}

func (m *MockReceiver) DeleteReaction(ctx context.Context, p ReactionPayload) (bool, error) {
	return m.result("DeleteReaction", ctx, p)
}

func (e *MockReceiver_Expecter) CreateMessage(ctx, p any) *mock.Call {
	return e.mock.On("CreateMessage", ctx, p)
}

func (e *MockReceiver_Expecter) UpdateMessage(ctx, p any) *mock.Call {
	return e.mock.On("UpdateMessage", ctx, p)
}

func (e *MockReceiver_Expecter) DeleteMessage(ctx, p any) *mock.Call {
	return e.mock.On("DeleteMessage", ctx, p)
}

func (e *MockReceiver_Expecter) CreateReaction(ctx, p any) *mock.Call {
	return e.mock.On("CreateReaction", ctx, p)
}

func (e *MockReceiver_Expecter) DeleteReaction(ctx, p any) *mock.Call {
	return e.mock.On("DeleteReaction", ctx, p)
}
