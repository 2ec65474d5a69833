package config

import (
	"context"
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"
	"github.com/suhasdasari/S4D5/store"
	"github.com/suhasdasari/S4D5/store/file"
	"github.com/suhasdasari/S4D5/store/memory"
	"github.com/suhasdasari/S4D5/store/postgres"
	"github.com/suhasdasari/S4D5/store/redis"
	"github.com/suhasdasari/S4D5/store/sqlite"
)

// Audit store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSqlite   = "sqlite"
)

// Backends lists the supported store backends.
var Backends = []string{BackendMemory, BackendFile, BackendRedis, BackendPostgres, BackendSqlite}

// storeEnvOptions are the option keys that can be set as S4D5_STORE_<KEY>.
var storeEnvOptions = []string{"dir", "addr", "password", "db", "prefix", "ttl", "conn_string", "path", "table"}

// Closer releases a store's connections. It is a no-op for stores without any.
type Closer func() error

func (s StoreConfig) validate() error {
	if !slices.Contains(Backends, s.Backend) {
		return fmt.Errorf("unknown backend %q (want one of %v)", s.Backend, Backends)
	}
	var err error
	switch s.Backend {
	case BackendFile:
		err = decodeOptions(s.Options, &file.FileOptions{})
	case BackendRedis:
		err = decodeOptions(s.Options, &redis.RedisOptions{})
	case BackendPostgres:
		err = decodeOptions(s.Options, &postgres.PostgresOptions{})
	case BackendSqlite:
		err = decodeOptions(s.Options, &sqlite.SqliteOptions{})
	}
	return err
}

// decodeOptions maps loosely typed options (YAML values or environment
// strings) onto a backend options struct. Durations may be written as "24h".
func decodeOptions(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// OpenStore builds the configured audit store. The returned Closer must be
// called when the store is no longer needed.
func (c Config) OpenStore(ctx context.Context) (store.AuditStore, Closer, error) {
	s := c.Store
	nop := func() error { return nil }

	switch s.Backend {
	case BackendMemory, "":
		return memory.NewMemoryAuditStore(), nop, nil

	case BackendFile:
		var opts file.FileOptions
		if err := decodeOptions(s.Options, &opts); err != nil {
			return nil, nil, err
		}
		fs, err := file.NewFileAuditStoreWithOptions(opts)
		if err != nil {
			return nil, nil, err
		}
		return fs, nop, nil

	case BackendRedis:
		var opts redis.RedisOptions
		if err := decodeOptions(s.Options, &opts); err != nil {
			return nil, nil, err
		}
		rs := redis.NewRedisAuditStore(opts)
		return rs, rs.Close, nil

	case BackendPostgres:
		var opts postgres.PostgresOptions
		if err := decodeOptions(s.Options, &opts); err != nil {
			return nil, nil, err
		}
		ps, err := postgres.NewPostgresAuditStore(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		if err := ps.InitSchema(ctx); err != nil {
			ps.Close()
			return nil, nil, err
		}
		return ps, func() error { ps.Close(); return nil }, nil

	case BackendSqlite:
		var opts sqlite.SqliteOptions
		if err := decodeOptions(s.Options, &opts); err != nil {
			return nil, nil, err
		}
		ss, err := sqlite.NewSqliteAuditStore(opts)
		if err != nil {
			return nil, nil, err
		}
		return ss, ss.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", s.Backend)
}
