package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/oggyb/irlobby/internal/core/model"
)

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Push(userID uint64, item model.NotificationItem) {
	m.Called(userID, item)
}
