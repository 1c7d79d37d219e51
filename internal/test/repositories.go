package test

import (
	"context"
	"sort"
	"time"

	domainErrors "github.com/bankdesk/bankdesk/internal/domain/errors"
	"github.com/bankdesk/bankdesk/internal/domain/model"
	"github.com/bankdesk/bankdesk/internal/domain/repository"
)

// OrderRepositoryStub stores orders in-memory for tests.
type OrderRepositoryStub struct {
	Orders map[int64]*model.Order
	Next   int64
	Err    error
}

// NewOrderRepositoryStub constructs stub repository with initialized maps.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[int64]*model.Order), Next: 1}
}

func (s *OrderRepositoryStub) Create(ctx context.Context, customerID int64, displayName, bank string, operation model.OperationKind, status string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	order := &model.Order{
		ID:          s.Next,
		CustomerID:  customerID,
		DisplayName: displayName,
		Bank:        bank,
		Operation:   operation,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	s.Next++
	s.Orders[order.ID] = order
	return order, nil
}

func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if order, ok := s.Orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) LatestByCustomer(ctx context.Context, customerID int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var latest *model.Order
	for _, order := range s.Orders {
		if order.CustomerID != customerID {
			continue
		}
		if latest == nil || order.ID > latest.ID {
			latest = order
		}
	}
	if latest == nil {
		return nil, domainErrors.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *OrderRepositoryStub) LatestQueuedByCustomer(ctx context.Context, customerID int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var latest *model.Order
	for _, order := range s.Orders {
		if order.CustomerID != customerID || order.Status != model.StatusQueued {
			continue
		}
		if latest == nil || order.ID > latest.ID {
			latest = order
		}
	}
	if latest == nil {
		return nil, domainErrors.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *OrderRepositoryStub) SetStage(ctx context.Context, orderID int64, stage int, status string) error {
	if s.Err != nil {
		return s.Err
	}
	order, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.Stage = stage
	order.Status = status
	return nil
}

func (s *OrderRepositoryStub) SetStatus(ctx context.Context, orderID int64, status string) error {
	if s.Err != nil {
		return s.Err
	}
	order, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.Status = status
	return nil
}

func (s *OrderRepositoryStub) BindChannel(ctx context.Context, orderID, channelChatID int64) error {
	if s.Err != nil {
		return s.Err
	}
	order, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.ChannelID = &channelChatID
	return nil
}

func (s *OrderRepositoryStub) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	all := s.sorted()
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *OrderRepositoryStub) ListOpen(ctx context.Context) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var open []model.Order
	for _, order := range s.sorted() {
		if !order.Terminal() {
			open = append(open, order)
		}
	}
	return open, nil
}

func (s *OrderRepositoryStub) Counts(ctx context.Context) (repository.OrderCounts, error) {
	if s.Err != nil {
		return repository.OrderCounts{}, s.Err
	}
	var counts repository.OrderCounts
	for _, order := range s.Orders {
		counts.Total++
		if order.Terminal() {
			counts.Finished++
		} else {
			counts.Open++
		}
	}
	return counts, nil
}

func (s *OrderRepositoryStub) sorted() []model.Order {
	result := make([]model.Order, 0, len(s.Orders))
	for _, order := range s.Orders {
		result = append(result, *order)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// PhotoRepositoryStub stores photo submissions in-memory for tests.
type PhotoRepositoryStub struct {
	Photos map[int64]*model.PhotoSubmission
	Next   int64
	Err    error
}

func NewPhotoRepositoryStub() *PhotoRepositoryStub {
	return &PhotoRepositoryStub{Photos: make(map[int64]*model.PhotoSubmission), Next: 1}
}

func (s *PhotoRepositoryStub) Add(ctx context.Context, orderID int64, stage int, mediaRef string) (*model.PhotoSubmission, bool, error) {
	if s.Err != nil {
		return nil, false, s.Err
	}
	for _, photo := range s.Photos {
		if photo.OrderID == orderID && photo.Stage == stage && photo.MediaRef == mediaRef {
			copied := *photo
			return &copied, false, nil
		}
	}
	photo := &model.PhotoSubmission{ID: s.Next, OrderID: orderID, Stage: stage, MediaRef: mediaRef}
	s.Next++
	s.Photos[photo.ID] = photo
	copied := *photo
	return &copied, true, nil
}

func (s *PhotoRepositoryStub) GetByID(ctx context.Context, id int64) (*model.PhotoSubmission, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if photo, ok := s.Photos[id]; ok {
		copied := *photo
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *PhotoRepositoryStub) Confirm(ctx context.Context, id int64) (*model.PhotoSubmission, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	photo, ok := s.Photos[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	photo.Confirmed = true
	copied := *photo
	return &copied, nil
}

func (s *PhotoRepositoryStub) CountsForStage(ctx context.Context, orderID int64, stage int) (repository.StageCounts, error) {
	if s.Err != nil {
		return repository.StageCounts{}, s.Err
	}
	var counts repository.StageCounts
	for _, photo := range s.Photos {
		if photo.OrderID != orderID || photo.Stage != stage {
			continue
		}
		counts.Total++
		if photo.Confirmed {
			counts.Confirmed++
		}
	}
	return counts, nil
}

func (s *PhotoRepositoryStub) ListByOrder(ctx context.Context, orderID int64) ([]model.PhotoSubmission, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.PhotoSubmission
	for _, photo := range s.Photos {
		if photo.OrderID == orderID {
			result = append(result, *photo)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ChannelRepositoryStub keeps the operator channel pool in-memory for tests.
type ChannelRepositoryStub struct {
	Channels []*model.OperatorChannel
	Next     int64
	Err      error
	ClaimErr error
}

func NewChannelRepositoryStub() *ChannelRepositoryStub {
	return &ChannelRepositoryStub{Next: 1}
}

func (s *ChannelRepositoryStub) Add(ctx context.Context, chatID int64, name string) error {
	if s.Err != nil {
		return s.Err
	}
	for _, channel := range s.Channels {
		if channel.ChatID == chatID {
			return nil
		}
	}
	s.Channels = append(s.Channels, &model.OperatorChannel{ID: s.Next, ChatID: chatID, Name: name})
	s.Next++
	return nil
}

func (s *ChannelRepositoryStub) Remove(ctx context.Context, chatID int64) error {
	if s.Err != nil {
		return s.Err
	}
	for i, channel := range s.Channels {
		if channel.ChatID == chatID {
			s.Channels = append(s.Channels[:i], s.Channels[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *ChannelRepositoryStub) List(ctx context.Context) ([]model.OperatorChannel, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]model.OperatorChannel, 0, len(s.Channels))
	for _, channel := range s.Channels {
		result = append(result, *channel)
	}
	return result, nil
}

func (s *ChannelRepositoryStub) ClaimFree(ctx context.Context) (*model.OperatorChannel, error) {
	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}
	if s.Err != nil {
		return nil, s.Err
	}
	for _, channel := range s.Channels {
		if !channel.Busy {
			channel.Busy = true
			copied := *channel
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNoFreeChannel
}

func (s *ChannelRepositoryStub) Release(ctx context.Context, chatID int64) error {
	if s.Err != nil {
		return s.Err
	}
	for _, channel := range s.Channels {
		if channel.ChatID == chatID {
			channel.Busy = false
		}
	}
	return nil
}

// QueueRepositoryStub keeps waiting customers in arrival order for tests.
type QueueRepositoryStub struct {
	Entries []*model.QueueEntry
	Next    int64
	Err     error
}

func NewQueueRepositoryStub() *QueueRepositoryStub {
	return &QueueRepositoryStub{Next: 1}
}

func (s *QueueRepositoryStub) Enqueue(ctx context.Context, customerID int64, displayName, bank string, operation model.OperationKind) (*model.QueueEntry, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	entry := &model.QueueEntry{
		ID:          s.Next,
		CustomerID:  customerID,
		DisplayName: displayName,
		Bank:        bank,
		Operation:   operation,
		CreatedAt:   time.Now(),
	}
	s.Next++
	s.Entries = append(s.Entries, entry)
	copied := *entry
	return &copied, nil
}

func (s *QueueRepositoryStub) PopOldest(ctx context.Context) (*model.QueueEntry, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Entries) == 0 {
		return nil, domainErrors.ErrQueueEmpty
	}
	entry := s.Entries[0]
	s.Entries = s.Entries[1:]
	copied := *entry
	return &copied, nil
}

func (s *QueueRepositoryStub) RemoveByCustomer(ctx context.Context, customerID int64) error {
	if s.Err != nil {
		return s.Err
	}
	kept := s.Entries[:0]
	for _, entry := range s.Entries {
		if entry.CustomerID != customerID {
			kept = append(kept, entry)
		}
	}
	s.Entries = kept
	return nil
}

func (s *QueueRepositoryStub) List(ctx context.Context) ([]model.QueueEntry, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]model.QueueEntry, 0, len(s.Entries))
	for _, entry := range s.Entries {
		result = append(result, *entry)
	}
	return result, nil
}

// CooperationRepositoryStub records cooperation requests for tests.
type CooperationRepositoryStub struct {
	Requests []model.CooperationRequest
	Next     int64
	Err      error
}

func NewCooperationRepositoryStub() *CooperationRepositoryStub {
	return &CooperationRepositoryStub{Next: 1}
}

func (s *CooperationRepositoryStub) Create(ctx context.Context, customerID int64, displayName, body string) (*model.CooperationRequest, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	request := model.CooperationRequest{
		ID:          s.Next,
		CustomerID:  customerID,
		DisplayName: displayName,
		Body:        body,
		CreatedAt:   time.Now(),
	}
	s.Next++
	s.Requests = append(s.Requests, request)
	copied := request
	return &copied, nil
}
