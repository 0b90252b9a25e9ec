package market

const (
	TopicOrderCreated = "order.created"
	TopicOrderStatus  = "order.status.changed"
)

// Partition key = order id, so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
