package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/geo/r3"

	"github.com/pable/go-data-pipelines/internal/model"
)

// Extract file names, relative to the output directory.
const (
	DropsFile   = "drops.csv"
	WeaponsFile = "weapons.csv"
	DamageFile  = "damage.csv"
	KillsFile   = "kills.csv"
	MatchesFile = "matches.csv"
)

// Writer persists the extracts of one match.
type Writer interface {
	Write(x model.Extract) error
}

// CSVSink appends extracts to the five CSV files in a directory. Files are
// opened in append mode and never get a header row.
type CSVSink struct {
	files   []*os.File
	drops   *csv.Writer
	weapons *csv.Writer
	damage  *csv.Writer
	kills   *csv.Writer
	matches *csv.Writer
}

// OpenCSV creates dir if needed and opens (or creates) every extract file in it.
func OpenCSV(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	s := &CSVSink{}
	open := func(name string) (*csv.Writer, error) {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		s.files = append(s.files, f)
		return csv.NewWriter(f), nil
	}
	var err error
	if s.drops, err = open(DropsFile); err != nil {
		s.Close()
		return nil, err
	}
	if s.weapons, err = open(WeaponsFile); err != nil {
		s.Close()
		return nil, err
	}
	if s.damage, err = open(DamageFile); err != nil {
		s.Close()
		return nil, err
	}
	if s.kills, err = open(KillsFile); err != nil {
		s.Close()
		return nil, err
	}
	if s.matches, err = open(MatchesFile); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Write appends all rows of x, suffixing each event row with the match id,
// then the match info line. Every file is flushed before returning.
func (s *CSVSink) Write(x model.Extract) error {
	id := x.Match.MatchID
	for _, r := range x.Drops {
		if err := s.drops.Write(DropRecord(r, id)); err != nil {
			return fmt.Errorf("write %s: %w", DropsFile, err)
		}
	}
	for _, r := range x.Weapons {
		if err := s.weapons.Write(WeaponRecord(r, id)); err != nil {
			return fmt.Errorf("write %s: %w", WeaponsFile, err)
		}
	}
	for _, r := range x.Damage {
		if err := s.damage.Write(DamageRecord(r, id)); err != nil {
			return fmt.Errorf("write %s: %w", DamageFile, err)
		}
	}
	for _, r := range x.Kills {
		if err := s.kills.Write(KillRecord(r, id)); err != nil {
			return fmt.Errorf("write %s: %w", KillsFile, err)
		}
	}
	if err := s.matches.Write(MatchRecord(x.Match)); err != nil {
		return fmt.Errorf("write %s: %w", MatchesFile, err)
	}
	for _, w := range []*csv.Writer{s.drops, s.weapons, s.damage, s.kills, s.matches} {
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("flush extracts: %w", err)
		}
	}
	return nil
}

// Close closes every open file.
func (s *CSVSink) Close() error {
	var first error
	for _, f := range s.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.files = nil
	return first
}

// DropRecord renders (phase, location, match_id).
func DropRecord(r model.DropRow, matchID string) []string {
	return []string{formatFloat(r.Phase), formatLocation(r.Location), matchID}
}

// WeaponRecord renders (phase, item_id, location, match_id).
func WeaponRecord(r model.WeaponRow, matchID string) []string {
	return []string{formatFloat(r.Phase), r.ItemID, formatLocation(r.Location), matchID}
}

// DamageRecord renders (phase, attacker, victim, damage, causer, reason, category, match_id).
func DamageRecord(r model.DamageRow, matchID string) []string {
	return []string{
		formatFloat(r.Phase),
		formatLocation(r.AttackerLocation),
		formatLocation(r.VictimLocation),
		formatFloat(r.Damage),
		r.Causer,
		r.Reason,
		r.Category,
		matchID,
	}
}

// KillRecord renders (phase, killer, victim, causer, reason, category, distance, match_id).
func KillRecord(r model.KillRow, matchID string) []string {
	return []string{
		formatFloat(r.Phase),
		formatLocation(r.KillerLocation),
		formatLocation(r.VictimLocation),
		r.Causer,
		r.Reason,
		r.Category,
		formatFloat(r.Distance),
		matchID,
	}
}

// MatchRecord renders (match_id, shard, game_mode, started_at, map_name, length_seconds).
func MatchRecord(r model.MatchRow) []string {
	started := ""
	if !r.StartedAt.IsZero() {
		started = r.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	return []string{r.MatchID, r.Shard, r.GameMode, started, r.MapName, strconv.Itoa(r.LengthSeconds)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatLocation renders a position as a single JSON object cell.
func formatLocation(v r3.Vector) string {
	return fmt.Sprintf(`{"x":%s,"y":%s,"z":%s}`, formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
}
