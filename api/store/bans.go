/* bans.go
 * Persistent ban list. Implements the BanListProvider contract consumed by
 * the fetch cache and the ban commands.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type banRecord struct {
	ID       string    `bson:"_id"` // player id
	BannedAt time.Time `bson:"bannedAt"`
}

// BanUser adds a player id to the ban list. Banning twice is a no-op.
func (s *Store) BanUser(ctx context.Context, userID string) error {
	_, err := s.Collections.Bans.InsertOne(ctx, banRecord{ID: userID, BannedAt: time.Now().UTC()})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}
	return nil
}

// UnbanUser removes a player id from the ban list.
func (s *Store) UnbanUser(ctx context.Context, userID string) error {
	if _, err := s.Collections.Bans.DeleteOne(ctx, bson.D{{Key: "_id", Value: userID}}); err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	return nil
}

// CurrentBannedIDs returns the full set of banned player ids.
func (s *Store) CurrentBannedIDs(ctx context.Context) (map[string]struct{}, error) {
	cursor, err := s.Collections.Bans.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list bans: %w", err)
	}
	defer cursor.Close(ctx)

	ids := make(map[string]struct{})
	for cursor.Next(ctx) {
		var record banRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode ban record: %w", err)
		}
		ids[record.ID] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bans: %w", err)
	}
	return ids, nil
}
