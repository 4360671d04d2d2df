/* snapshots.go
 * Publishing and retrieval of tournament snapshot documents.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geotourney-bot/api/snapshot"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// snapshotRecord is the stored shape of one published snapshot.
type snapshotRecord struct {
	ID        string            `bson:"_id"`
	CreatedAt time.Time         `bson:"createdAt"`
	Data      snapshot.Document `bson:"data"`
}

// ErrSnapshotNotFound is returned when no snapshot exists for an id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Publish stores the snapshot under a fresh id and returns the public URL it
// will be served from.
func (s *Store) Publish(ctx context.Context, doc snapshot.Document) (string, error) {
	record := snapshotRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Data:      doc,
	}
	if _, err := s.Collections.Snapshots.InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store snapshot: %w", err)
	}
	return fmt.Sprintf("%s/tournaments/%s", s.baseURL, record.ID), nil
}

// GetSnapshot fetches a published snapshot by id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (snapshot.Document, error) {
	var record snapshotRecord
	err := s.Collections.Snapshots.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return snapshot.Document{}, ErrSnapshotNotFound
		}
		return snapshot.Document{}, fmt.Errorf("error fetching snapshot from db: %w", err)
	}
	return record.Data, nil
}
