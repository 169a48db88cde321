package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
	"github.com/solvedesk/helpdesk-backend/internal/core/ports"
)

// MockUserDirectory is a mock implementation of ports.UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func NewMockUserDirectory() *MockUserDirectory {
	return &MockUserDirectory{}
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserDirectory) FindOrCreateCustomer(ctx context.Context, tenantID uuid.UUID, email, fullName string) (*domain.User, error) {
	args := m.Called(ctx, tenantID, email, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockTenantDirectory is a mock implementation of ports.TenantDirectory
type MockTenantDirectory struct {
	mock.Mock
}

func NewMockTenantDirectory() *MockTenantDirectory {
	return &MockTenantDirectory{}
}

func (m *MockTenantDirectory) ResolveByInboundAddress(ctx context.Context, address string) (*domain.Tenant, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

// MockTicketIntake is a mock implementation of ports.TicketIntake
type MockTicketIntake struct {
	mock.Mock
}

func NewMockTicketIntake() *MockTicketIntake {
	return &MockTicketIntake{}
}

func (m *MockTicketIntake) OpenTicket(ctx context.Context, params ports.OpenTicketParams) (*domain.TicketSnapshot, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketSnapshot), args.Error(1)
}

func (m *MockTicketIntake) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*domain.TicketSnapshot, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketSnapshot), args.Error(1)
}

func (m *MockTicketIntake) AddComment(ctx context.Context, params ports.AddCommentParams) (*domain.CommentSnapshot, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommentSnapshot), args.Error(1)
}

// MockEmailSender is a mock implementation of ports.EmailSender
type MockEmailSender struct {
	mock.Mock
}

func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

func (m *MockEmailSender) Send(ctx context.Context, recipient string, kind ports.TemplateKind, data ports.TemplateData) error {
	args := m.Called(ctx, recipient, kind, data)
	return args.Error(0)
}

// MockLiveBroadcaster is a mock implementation of ports.LiveBroadcaster
type MockLiveBroadcaster struct {
	mock.Mock
}

func NewMockLiveBroadcaster() *MockLiveBroadcaster {
	return &MockLiveBroadcaster{}
}

func (m *MockLiveBroadcaster) Broadcast(room string, event domain.Event) {
	m.Called(room, event)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(event domain.Event) {
	m.Called(event)
}

// MockNotificationFanout is a mock implementation of ports.NotificationFanout
type MockNotificationFanout struct {
	mock.Mock
}

func NewMockNotificationFanout() *MockNotificationFanout {
	return &MockNotificationFanout{}
}

func (m *MockNotificationFanout) Notify(ctx context.Context, params ports.NotifyParams) {
	m.Called(ctx, params)
}
