package messaging

const (
	TopicOrderCreated = "order.created"
	TopicOrderShipped = "order.shipped"
)
