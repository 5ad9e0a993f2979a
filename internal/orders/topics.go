package orders

const (
	TopicOrderPlaced      = "shop.order.placed"
	TopicOrderCancelled   = "shop.order.cancelled"
	TopicOrderStatus      = "shop.order.status"
	TopicInventoryChanged = "shop.inventory.changed"
)

// Partition key = order_id so all events of one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
