package libemit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockConnection struct {
	mock.Mock

	tapOpen func()
}

func (m *mockConnection) Open(ctx context.Context) error {
	if m.tapOpen != nil {
		m.tapOpen()
	}
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockConnection) Write(f Frame) error {
	args := m.Called(f)
	return args.Error(0)
}

func (m *mockConnection) Close() {
	m.Called()
}

func (m *mockConnection) CloseErr() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockConnection) CloseChan() CloseChan {
	args := m.Called()
	return args.Get(0).(CloseChan)
}
