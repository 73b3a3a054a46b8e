package model

import (
	"database/sql"
	"time"

	"github.com/golang/geo/r3"
)

// Telemetry event type discriminators (the "_T" field).
const (
	EventItemPickup       = "LogItemPickup"
	EventItemUnequip      = "LogItemUnequip"
	EventPlayerTakeDamage = "LogPlayerTakeDamage"
	EventPlayerKill       = "LogPlayerKill"
	EventMatchStart       = "LogMatchStart"
	EventMatchEnd         = "LogMatchEnd"
)

// ---- Raw telemetry, as decoded from the telemetry file ----

// Actor is a character sub-record (character, victim, attacker, killer).
type Actor struct {
	Name      string    `json:"name"`
	AccountID string    `json:"accountId"`
	TeamID    int       `json:"teamId"`
	Health    float64   `json:"health"`
	Location  r3.Vector `json:"location"` // world position in centimetres
}

type Item struct {
	ItemID      string `json:"itemId"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
}

// Common carries fields every event shares.
type Common struct {
	// IsGame is the game phase: 0 before the plane takes off, then 0.1, 0.5,
	// 1.0, 1.5, ... as the play zone shrinks.
	IsGame float64 `json:"isGame"`
}

// TelemetryEvent is the union of the event shapes the flattener reads.
// Sub-records absent from a given event type stay nil.
type TelemetryEvent struct {
	Type      string    `json:"_T"`
	Timestamp time.Time `json:"_D"`
	Common    Common    `json:"common"`

	Character *Actor `json:"character"`
	Victim    *Actor `json:"victim"`
	Attacker  *Actor `json:"attacker"`
	Killer    *Actor `json:"killer"`
	Item      *Item  `json:"item"`

	Damage             float64 `json:"damage"`
	DamageCauserName   string  `json:"damageCauserName"`
	DamageReason       string  `json:"damageReason"`
	DamageTypeCategory string  `json:"damageTypeCategory"`
	Distance           float64 `json:"distance"`

	MapName string `json:"mapName"` // LogMatchStart only
}

// MatchInfo is the subset of the match resource needed to fetch and label telemetry.
type MatchInfo struct {
	ID           string
	Shard        string
	GameMode     string
	CreatedAt    time.Time
	TelemetryURL string
}

// ---- Flattened extracts ----

type DropRow struct {
	Phase    float64
	Location r3.Vector
}

type WeaponRow struct {
	Phase    float64
	ItemID   string
	Location r3.Vector
}

type DamageRow struct {
	Phase            float64
	AttackerLocation r3.Vector
	VictimLocation   r3.Vector
	Damage           float64
	Causer           string
	Reason           string
	Category         string
}

type KillRow struct {
	Phase          float64
	KillerLocation r3.Vector
	VictimLocation r3.Vector
	Causer         string
	Reason         string
	Category       string
	Distance       float64
}

// MatchRow is one line of the matches extract.
type MatchRow struct {
	MatchID       string
	Shard         string
	GameMode      string
	StartedAt     time.Time
	MapName       string
	LengthSeconds int
}

// Extract holds the five tables produced from one match.
type Extract struct {
	Match   MatchRow
	Drops   []DropRow
	Weapons []WeaponRow
	Damage  []DamageRow
	Kills   []KillRow
}

// ScrapedMatch is a ledger entry for a match whose extracts were written.
type ScrapedMatch struct {
	MatchID   string `db:"match_id"`
	MapName   string `db:"map_name"`
	GameMode  string `db:"game_mode"`
	StartedAt string `db:"started_at"`
	Drops     int    `db:"drops"`
	Weapons   int    `db:"weapons"`
	Damage    int    `db:"damage"`
	Kills     int    `db:"kills"`
	ScrapedAt string `db:"scraped_at"`
}

// ---- Disaster-response messages ----

// Message is one cleaned row of the messages table.
type Message struct {
	ID       int64
	Message  string
	Original sql.NullString // untranslated text; empty in the source CSV for English messages
	Genre    string
	// Categories holds one binary value per MessageTable.CategoryNames entry.
	Categories []int
}

// MessageTable is the cleaned dataset: fixed columns plus N binary category columns.
type MessageTable struct {
	CategoryNames []string
	Rows          []Message
}

// Texts returns the message column in row order.
func (t *MessageTable) Texts() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Message
	}
	return out
}

// Labels returns the category matrix in row order.
func (t *MessageTable) Labels() [][]uint8 {
	out := make([][]uint8, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]uint8, len(r.Categories))
		for j, v := range r.Categories {
			row[j] = uint8(v)
		}
		out[i] = row
	}
	return out
}
