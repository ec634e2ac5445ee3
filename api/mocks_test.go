package api

import (
	"context"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/service/reservation"
	"github.com/stretchr/testify/mock"
)

type MockTicketUseCase struct {
	mock.Mock
}

func (m *MockTicketUseCase) Availability(ctx context.Context, number int) (*domain.Availability, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *MockTicketUseCase) Board(ctx context.Context, cursor, limit int) (*domain.BoardPage, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoardPage), args.Error(1)
}

func (m *MockTicketUseCase) MyTickets(ctx context.Context, actor domain.Actor) ([]domain.Ticket, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketUseCase) InitPool(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) SubmitPayment(ctx context.Context, req domain.Request, input reservation.SubmitPaymentInput) (*domain.Payment, error) {
	args := m.Called(ctx, req, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockReservationUseCase) UpdatePayment(ctx context.Context, req domain.Request, id int64, input reservation.UpdatePaymentInput) (*domain.Payment, error) {
	args := m.Called(ctx, req, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockReservationUseCase) DeletePayment(ctx context.Context, req domain.Request, id int64) error {
	args := m.Called(ctx, req, id)
	return args.Error(0)
}

func (m *MockReservationUseCase) ResolvePayment(ctx context.Context, req domain.Request, id int64, decision domain.PaymentStatus) (*domain.Payment, error) {
	args := m.Called(ctx, req, id, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockReservationUseCase) AssignTickets(ctx context.Context, req domain.Request, userID int64, numbers []int) ([]domain.Ticket, error) {
	args := m.Called(ctx, req, userID, numbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockReservationUseCase) RejectTicket(ctx context.Context, req domain.Request, number int) (*domain.Ticket, error) {
	args := m.Called(ctx, req, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockReservationUseCase) GetPayment(ctx context.Context, req domain.Request, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, req, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockReservationUseCase) ListPayments(ctx context.Context, req domain.Request, status domain.PaymentStatus) ([]domain.Payment, error) {
	args := m.Called(ctx, req, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

type MockSettingsSource struct {
	mock.Mock
}

func (m *MockSettingsSource) Current(ctx context.Context) (domain.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Settings), args.Error(1)
}
