package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pable/go-data-pipelines/internal/model"
)

// MatchScraped returns true if the match's extracts were already written.
func (db *DB) MatchScraped(matchID string) (bool, error) {
	var count int
	err := db.conn.Get(&count, "SELECT COUNT(1) FROM scraped_matches WHERE match_id = ?", matchID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordScrapedMatch records a written extract. Uses INSERT OR REPLACE so a
// rescrape refreshes the row counts.
func (db *DB) RecordScrapedMatch(x model.Extract) error {
	started := ""
	if !x.Match.StartedAt.IsZero() {
		started = x.Match.StartedAt.UTC().Format(time.RFC3339)
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO scraped_matches(match_id, map_name, game_mode, started_at, drops, weapons, damage, kills, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		x.Match.MatchID, x.Match.MapName, x.Match.GameMode, started,
		len(x.Drops), len(x.Weapons), len(x.Damage), len(x.Kills),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListScrapedMatches returns all ledger entries ordered by started_at desc.
func (db *DB) ListScrapedMatches() ([]model.ScrapedMatch, error) {
	var out []model.ScrapedMatch
	err := db.conn.Select(&out, `
		SELECT match_id, map_name, game_mode, started_at, drops, weapons, damage, kills, scraped_at
		FROM scraped_matches ORDER BY started_at DESC, match_id`)
	return out, err
}

// GetScrapedMatchByPrefix finds the first ledger entry whose id starts with prefix.
func (db *DB) GetScrapedMatchByPrefix(prefix string) (*model.ScrapedMatch, error) {
	var m model.ScrapedMatch
	err := db.conn.Get(&m, `
		SELECT match_id, map_name, game_mode, started_at, drops, weapons, damage, kills, scraped_at
		FROM scraped_matches WHERE match_id LIKE ? ORDER BY match_id LIMIT 1`, prefix+"%")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
