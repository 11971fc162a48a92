package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type indexDef struct {
	table   string
	name    string
	columns string
}

// secondaryIndexes covers the lookups the feed, like and notification
// queries run on every request.
var secondaryIndexes = []indexDef{
	{"posts", "idx_posts_user_id", "user_id"},
	{"posts", "idx_posts_created_at", "created_at"},

	{"comments", "idx_comments_post_id", "post_id"},
	{"comments", "idx_comments_user_id", "user_id"},

	{"likes", "idx_likes_post_id", "post_id"},
	{"likes", "idx_likes_comment_id", "comment_id"},
	{"likes", "idx_likes_user_id", "user_id"},

	{"notifications", "idx_notifications_receiver_id", "receiver_id"},
	{"notifications", "idx_notifications_sender_community", "sender_id, community_id"},
}

// AddIndexes creates any missing secondary index. Safe to run on every start.
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	migrator := db.Migrator()

	for _, idx := range secondaryIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
