package orders

const (
	TopicOrderEvents    = "order.events"
	TopicNotifications  = "order.notifications"
	TopicOrderCompleted = "order.completed"
)

// Partition key = order_id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
