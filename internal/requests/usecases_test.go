package requests

import (
	"context"
	"sync"
	"testing"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/proof"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateRequest(ctx context.Context, d Draft) (StockRequest, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(StockRequest), args.Error(1)
}

func (m *MockGateway) UpdateRequest(ctx context.Context, id int64, d Draft) (StockRequest, error) {
	args := m.Called(ctx, id, d)
	return args.Get(0).(StockRequest), args.Error(1)
}

func (m *MockGateway) UpdateRequestStatus(ctx context.Context, id int64, status Status, forWarehouse bool) error {
	args := m.Called(ctx, id, status, forWarehouse)
	return args.Error(0)
}

func (m *MockGateway) DeleteRequest(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) ReceiveShipment(ctx context.Context, shipmentID int64, p *proof.File) error {
	args := m.Called(ctx, shipmentID, p)
	return args.Error(0)
}

type recorder struct {
	mu     sync.Mutex
	topics []eventbus.Topic
}

func (r *recorder) Publish(_ context.Context, topic eventbus.Topic, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

func (r *recorder) published() []eventbus.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventbus.Topic(nil), r.topics...)
}

func newTracker() (*Tracker, *MockGateway, *recorder) {
	gw := new(MockGateway)
	rec := &recorder{}
	return NewTracker(gw, rec, zap.NewNop()), gw, rec
}

func TestTracker_RejectThenEditIsInvalid(t *testing.T) {
	// Arrange
	tracker, gw, rec := newTracker()
	ctx := context.Background()
	draft := Draft{MaterialID: 5, Quantity: decimal.NewFromInt(10)}
	gw.On("CreateRequest", mock.Anything, draft).Return(StockRequest{ID: 21, MaterialID: 5, Status: "diajukan"}, nil)
	gw.On("UpdateRequestStatus", mock.Anything, int64(21), StatusRejected, true).Return(nil)

	// Act
	created, err := tracker.Create(ctx, draft)
	require.NoError(t, err)
	rejected, err := tracker.Reject(ctx, created)
	require.NoError(t, err)
	edited, editErr := tracker.Edit(ctx, rejected, Draft{MaterialID: 5, Quantity: decimal.NewFromInt(3)})

	// Assert
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.ErrorIs(t, editErr, apperr.ErrInvalidTransition)
	assert.Equal(t, StatusRejected, edited.Status)
	gw.AssertNotCalled(t, "UpdateRequest", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []eventbus.Topic{eventbus.TopicRequestChanged, eventbus.TopicRequestChanged}, rec.published())
}

func TestTracker_ConfirmReceiptWithoutShipment(t *testing.T) {
	tracker, gw, rec := newTracker()
	approved := StockRequest{ID: 22, Status: StatusApproved}

	got, err := tracker.ConfirmReceipt(context.Background(), approved, nil)

	assert.ErrorIs(t, err, apperr.ErrMissingDependency)
	assert.Equal(t, StatusApproved, got.Status)
	gw.AssertNotCalled(t, "ReceiveShipment", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, rec.published())
}

func TestTracker_ConfirmReceipt(t *testing.T) {
	tracker, gw, rec := newTracker()
	approved := StockRequest{ID: 23, Status: StatusApproved, LinkedShipmentID: shipment(77)}
	photo := &proof.File{Name: "terima.jpg", ContentType: "image/jpeg", Data: []byte{1, 2, 3}}
	gw.On("ReceiveShipment", mock.Anything, int64(77), photo).Return(nil)

	got, err := tracker.ConfirmReceipt(context.Background(), approved, photo)

	require.NoError(t, err)
	assert.Equal(t, StatusReceived, got.Status)
	assert.Equal(t, []eventbus.Topic{eventbus.TopicRequestChanged, eventbus.TopicStockChanged}, rec.published())
	gw.AssertExpectations(t)
}

func TestTracker_RemoteFailurePublishesNothing(t *testing.T) {
	tracker, gw, rec := newTracker()
	pending := StockRequest{ID: 24, Status: StatusPending}
	remoteErr := apperr.NewStatusError("updatePermintaanStatus", 422, "Stok gudang tidak cukup")
	gw.On("UpdateRequestStatus", mock.Anything, int64(24), StatusApproved, true).Return(remoteErr)

	got, err := tracker.Approve(context.Background(), pending)

	assert.ErrorIs(t, err, apperr.ErrRemoteCall)
	assert.Equal(t, "Stok gudang tidak cukup", apperr.Message(err))
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, rec.published())
}

func TestTracker_ApproveTwiceIsInvalid(t *testing.T) {
	tracker, gw, _ := newTracker()
	gw.On("UpdateRequestStatus", mock.Anything, int64(25), StatusApproved, true).Return(nil).Once()

	approved, err := tracker.Approve(context.Background(), StockRequest{ID: 25, Status: StatusPending})
	require.NoError(t, err)

	_, err = tracker.Approve(context.Background(), approved)

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	gw.AssertNumberOfCalls(t, "UpdateRequestStatus", 1)
}

func TestTracker_Cancel(t *testing.T) {
	tracker, gw, rec := newTracker()
	gw.On("DeleteRequest", mock.Anything, int64(26)).Return(nil)

	got, err := tracker.Cancel(context.Background(), StockRequest{ID: 26, Status: StatusPending})

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, []eventbus.Topic{eventbus.TopicRequestChanged}, rec.published())
}

func TestTracker_CreateRejectsBadQuantityLocally(t *testing.T) {
	tracker, gw, rec := newTracker()

	_, err := tracker.Create(context.Background(), Draft{MaterialID: 5, Quantity: decimal.Zero})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	gw.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
	assert.Empty(t, rec.published())
}

func TestTracker_EditPending(t *testing.T) {
	tracker, gw, _ := newTracker()
	pending := StockRequest{ID: 27, MaterialID: 5, QuantityRequested: decimal.NewFromInt(2), Status: StatusPending}
	draft := Draft{MaterialID: 6, Quantity: decimal.NewFromInt(4)}
	gw.On("UpdateRequest", mock.Anything, int64(27), draft).Return(StockRequest{}, nil)

	got, err := tracker.Edit(context.Background(), pending, draft)

	require.NoError(t, err)
	assert.Equal(t, int64(6), got.MaterialID)
	assert.True(t, decimal.NewFromInt(4).Equal(got.QuantityRequested))
	assert.Equal(t, StatusPending, got.Status)
}

func TestTracker_EditTerminalRequestReportsLifecycleFirst(t *testing.T) {
	tracker, gw, rec := newTracker()
	rejected := StockRequest{ID: 28, MaterialID: 5, QuantityRequested: decimal.NewFromInt(2), Status: StatusRejected}

	_, err := tracker.Edit(context.Background(), rejected, Draft{MaterialID: 5, Quantity: decimal.NewFromInt(-1)})

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.NotErrorIs(t, err, apperr.ErrValidation)
	gw.AssertNotCalled(t, "UpdateRequest", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, rec.published())
}

func TestTracker_EditPendingStillValidatesDraft(t *testing.T) {
	tracker, gw, _ := newTracker()
	pending := StockRequest{ID: 29, MaterialID: 5, QuantityRequested: decimal.NewFromInt(2), Status: StatusPending}

	_, err := tracker.Edit(context.Background(), pending, Draft{MaterialID: 5, Quantity: decimal.Zero})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	gw.AssertNotCalled(t, "UpdateRequest", mock.Anything, mock.Anything, mock.Anything)
}
