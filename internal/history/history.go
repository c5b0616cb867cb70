// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watchpoints/watchpoints/internal/metrics"
	"github.com/watchpoints/watchpoints/internal/models"
)

// AppendWatchEvent inserts one watch event row. When the event carries no
// ID one is assigned. Implements ledger.HistoryAppender.
func (db *DB) AppendWatchEvent(ctx context.Context, event *models.WatchEvent) error {
	start := time.Now()
	err := db.appendWatchEvent(ctx, event)
	metrics.RecordHistoryQuery("append", time.Since(start), err)
	return err
}

func (db *DB) appendWatchEvent(ctx context.Context, event *models.WatchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO watch_events (id, user_id, video_id, session_id, watch_seconds, xp_earned, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.VideoID, event.SessionID,
		event.WatchTime, event.XPEarned, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert watch event: %w", err)
	}
	return nil
}

// UserHistory returns the user's watch events, newest first. limit caps the
// page size and offset skips past earlier pages.
func (db *DB) UserHistory(ctx context.Context, userID string, limit, offset int) ([]models.WatchEvent, error) {
	start := time.Now()
	events, err := db.userHistory(ctx, userID, limit, offset)
	metrics.RecordHistoryQuery("user_history", time.Since(start), err)
	return events, err
}

func (db *DB) userHistory(ctx context.Context, userID string, limit, offset int) ([]models.WatchEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, video_id, COALESCE(session_id, ''), watch_seconds, xp_earned, occurred_at
		FROM watch_events
		WHERE user_id = ?
		ORDER BY occurred_at DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	events := make([]models.WatchEvent, 0, limit)
	for rows.Next() {
		var ev models.WatchEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.VideoID, &ev.SessionID,
			&ev.WatchTime, &ev.XPEarned, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan watch event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return events, nil
}

// UserSummary aggregates the user's full history for the profile view.
func (db *DB) UserSummary(ctx context.Context, userID string) (*models.WatchSummary, error) {
	start := time.Now()
	summary, err := db.userSummary(ctx, userID)
	metrics.RecordHistoryQuery("user_summary", time.Since(start), err)
	return summary, err
}

func (db *DB) userSummary(ctx context.Context, userID string) (*models.WatchSummary, error) {
	var summary models.WatchSummary
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT video_id), COALESCE(SUM(watch_seconds), 0), COALESCE(SUM(xp_earned), 0)
		FROM watch_events
		WHERE user_id = ?`,
		userID).Scan(&summary.TotalVideos, &summary.TotalWatchTime, &summary.TotalXPEarned)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &summary, nil
}

// DailyTotals buckets the user's last `days` days of history by calendar
// day. Days without playback are absent from the result.
func (db *DB) DailyTotals(ctx context.Context, userID string, days int) ([]models.DailyWatchTotal, error) {
	start := time.Now()
	totals, err := db.dailyTotals(ctx, userID, days)
	metrics.RecordHistoryQuery("daily_totals", time.Since(start), err)
	return totals, err
}

func (db *DB) dailyTotals(ctx context.Context, userID string, days int) ([]models.DailyWatchTotal, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT date_trunc('day', occurred_at) AS day,
		       SUM(watch_seconds),
		       SUM(xp_earned),
		       COUNT(DISTINCT session_id)
		FROM watch_events
		WHERE user_id = ? AND occurred_at >= ?
		GROUP BY day
		ORDER BY day`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []models.DailyWatchTotal
	for rows.Next() {
		var t models.DailyWatchTotal
		if err := rows.Scan(&t.Day, &t.WatchTime, &t.XPEarned, &t.SessionsPlayed); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return totals, nil
}

// TopVideos ranks videos by total watch time across all users.
func (db *DB) TopVideos(ctx context.Context, limit int) ([]models.TopVideo, error) {
	start := time.Now()
	videos, err := db.topVideos(ctx, limit)
	metrics.RecordHistoryQuery("top_videos", time.Since(start), err)
	return videos, err
}

func (db *DB) topVideos(ctx context.Context, limit int) ([]models.TopVideo, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT video_id, COUNT(*), SUM(watch_seconds)
		FROM watch_events
		GROUP BY video_id
		ORDER BY SUM(watch_seconds) DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query top videos: %w", err)
	}
	defer rows.Close()

	var videos []models.TopVideo
	for rows.Next() {
		var v models.TopVideo
		if err := rows.Scan(&v.VideoID, &v.Plays, &v.TotalWatchTime); err != nil {
			return nil, fmt.Errorf("scan top video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top videos: %w", err)
	}
	return videos, nil
}
