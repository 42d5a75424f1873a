package boltstore

// Every table owns a top-level bucket with two sub-buckets.
var (
	bRecords = []byte("records") // id -> record JSON
	bOrder   = []byte("order")   // created(8) + 0x00 + id -> {}
)
