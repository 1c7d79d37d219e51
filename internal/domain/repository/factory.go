package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Orders() OrderRepository
	Photos() PhotoRepository
	Channels() ChannelRepository
	Queue() QueueRepository
	Cooperations() CooperationRepository
}
