package mocks

import "github.com/stretchr/testify/mock"

// MockCommander is a testify mock of redis.Commander.
type MockCommander struct {
	mock.Mock
}

// NewMockCommander creates a MockCommander that asserts its expectations
// when the test ends.
func NewMockCommander(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCommander {
	m := &MockCommander{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCommander) UserID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCommander) JoinDirect(otherUserId string) bool {
	args := m.Called(otherUserId)
	return args.Bool(0)
}

func (m *MockCommander) SendDirect(toUserId, text, clientMessageId string) bool {
	args := m.Called(toUserId, text, clientMessageId)
	return args.Bool(0)
}

func (m *MockCommander) Typing(otherUserId string, isTyping bool) bool {
	args := m.Called(otherUserId, isTyping)
	return args.Bool(0)
}

func (m *MockCommander) Delivered(otherUserId string, messageIds []string) bool {
	args := m.Called(otherUserId, messageIds)
	return args.Bool(0)
}

func (m *MockCommander) Read(otherUserId string, messageIds []string) bool {
	args := m.Called(otherUserId, messageIds)
	return args.Bool(0)
}

func (m *MockCommander) History(userA, userB string, page, pageSize int) bool {
	args := m.Called(userA, userB, page, pageSize)
	return args.Bool(0)
}
