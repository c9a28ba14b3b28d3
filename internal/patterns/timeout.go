package patterns

import "time"

// DefaultTimeout bounds a single outbound HTTP call
const DefaultTimeout = 3 * time.Second

// DefaultBulkheadWait is how long a caller queues for a bulkhead slot
const DefaultBulkheadWait = 1 * time.Second
