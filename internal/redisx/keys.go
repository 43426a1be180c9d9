package redisx

import "time"

const (
	// idem:order:create:{buyer_id}:{idempotency_key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	// order_status:{order_id} -> CachedStatus JSON
	KeyOrderStatus = "order_status:%s"

	// dedup:{consumer}:{id}, id is the event id or order id
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	// outlives any in-flight status read
	TTLInvalidation = 30 * time.Second
	TTLDedup       = 48 * time.Hour
)
