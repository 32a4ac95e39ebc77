// Package feed builds channel upload feeds and remembers which channels a
// session token follows.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultDSN keeps subscriptions in memory only.
const DefaultDSN = ":memory:"

var ErrEmptyToken = errors.New("empty auth token")

// Subscription is one token -> channel pair.
type Subscription struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"size:128;not null;uniqueIndex:idx_token_channel"`
	ChannelID string `gorm:"size:64;not null;uniqueIndex:idx_token_channel"`
	CreatedAt time.Time
}

// Store persists subscriptions through gorm.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn (sqlite) and migrates the schema.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open feed store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every new connection to :memory: is a fresh empty database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Subscription{}); err != nil {
		return nil, fmt.Errorf("migrate feed store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Subscribe adds channel ids to token. Already known pairs are ignored.
func (s *Store) Subscribe(ctx context.Context, token string, channelIDs []string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	ids := CleanIDs(channelIDs)
	if len(ids) == 0 {
		return nil
	}

	rows := lo.Map(ids, func(id string, _ int) Subscription {
		return Subscription{Token: token, ChannelID: id}
	})
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Channels lists the channels token follows, in subscription order.
func (s *Store) Channels(ctx context.Context, token string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("token = ?", strings.TrimSpace(token)).
		Order("id").
		Pluck("channel_id", &ids).Error
	return ids, err
}

// Seed subscribes every token in sessions.
func (s *Store) Seed(ctx context.Context, sessions map[string][]string) error {
	for token, ids := range sessions {
		if err := s.Subscribe(ctx, token, ids); err != nil {
			return fmt.Errorf("seed %q: %w", token, err)
		}
	}
	return nil
}

// CleanIDs trims and de-duplicates a channel id list.
func CleanIDs(ids []string) []string {
	return lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string { return strings.TrimSpace(id) })))
}

// ParseIDs splits a comma separated channel list.
func ParseIDs(raw string) []string {
	return CleanIDs(strings.Split(raw, ","))
}
