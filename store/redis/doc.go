// Package redis provides a Redis-backed AuditStore.
//
// Keys are laid out under a configurable prefix (default "s4d5:"):
//
//	s4d5:record:<run id>           JSON encoded store.Record
//	s4d5:runs                      sorted set of every run ID, scored by creation time
//	s4d5:workflow:<name>:runs      sorted set of the run IDs of one workflow
//
// A TTL, when set, applies to records and indexes alike.
//
//	s := redis.NewRedisAuditStore(redis.RedisOptions{
//		Addr: "localhost:6379",
//		TTL:  7 * 24 * time.Hour,
//	})
package redis
