// Package mongostore keeps job postings as documents with an embedded
// candidates array, the shape the data has natively.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aicruit/internal/store"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	jobPostingsCollection    = "job_postings"
	usersCollection          = "users"
	backgroundJobsCollection = "background_jobs"
)

// emailCollation makes email lookups and the unique email index case-insensitive.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// New connects to uri and uses the named database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo URI cannot be empty")
	}
	if database == "" {
		return nil, errors.New("mongo database name cannot be empty")
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) jobs() *mongo.Collection   { return s.db.Collection(jobPostingsCollection) }
func (s *Store) users() *mongo.Collection  { return s.db.Collection(usersCollection) }
func (s *Store) ledger() *mongo.Collection { return s.db.Collection(backgroundJobsCollection) }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Migrate creates the indexes the store relies on. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.jobs(), mongo.IndexModel{Keys: bson.D{{Key: "job_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.jobs(), mongo.IndexModel{Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "candidates.id", Value: 1}}}},
		{s.users(), mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(emailCollation)}},
		{s.ledger(), mongo.IndexModel{Keys: bson.D{{Key: "task_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for _, idx := range indexes {
		name, err := idx.coll.Indexes().CreateOne(ctx, idx.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
		log.Debugf("Ensured index %s on %s", name, idx.coll.Name())
	}
	return nil
}
