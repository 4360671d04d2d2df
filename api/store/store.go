/* store.go
 * MongoDB-backed persistence: published tournament snapshots and the ban
 * list. The snapshot collection doubles as the SnapshotPublisher backend;
 * published documents are served back out by the web package.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections groups the mongo collections the bot touches.
type Collections struct {
	Snapshots *mongo.Collection
	Bans      *mongo.Collection
}

// Store wraps the mongo client plus the base URL published snapshot links
// are built from.
type Store struct {
	Client      *mongo.Client
	Collections Collections
	baseURL     string
}

// NewStore connects to mongo and prepares the collection handles. baseURL is
// the externally reachable address of the web server, without trailing slash.
func NewStore(mongoURI, dbName, baseURL string) (*Store, error) {
	if mongoURI == "" || dbName == "" {
		return nil, fmt.Errorf("mongoURI and dbName are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(dbName)
	return &Store{
		Client: client,
		Collections: Collections{
			Snapshots: db.Collection("tournament_snapshots"),
			Bans:      db.Collection("banned_users"),
		},
		baseURL: baseURL,
	}, nil
}

// Disconnect closes the underlying mongo client.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
