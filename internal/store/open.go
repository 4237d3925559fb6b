package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Options struct {
	Driver        string
	BoltPath      string
	Postgres      *sqlx.DB
	MongoURI      string
	MongoDatabase string
}

// Open returns the driver named by opts.Driver. The Postgres handle must
// already be migrated.
func Open(ctx context.Context, opts Options, schemas ...Schema) (Store, error) {
	switch opts.Driver {
	case "", "bolt":
		return NewBoltStore(opts.BoltPath, schemas...)
	case "postgres":
		if opts.Postgres == nil {
			return nil, errors.New("postgres driver requires a database handle")
		}
		return NewPostgresStore(opts.Postgres, schemas...), nil
	case "mongo":
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase, schemas...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
