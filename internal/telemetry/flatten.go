// Package telemetry flattens PUBG match telemetry into positional extracts
// (drops, weapon pickups, damage, kills, match info) and runs the per-match
// scrape loop over a batch of sample matches.
package telemetry

import (
	"strings"

	"github.com/golang/geo/r3"

	"github.com/pable/go-data-pipelines/internal/model"
)

// Flatten projects one match's telemetry stream into its five extracts.
func Flatten(info model.MatchInfo, events []model.TelemetryEvent) model.Extract {
	return model.Extract{
		Match:   MatchRow(info, events),
		Drops:   Drops(events),
		Weapons: Weapons(events),
		Damage:  Damage(events),
		Kills:   Kills(events),
	}
}

// Drops returns one row per parachute unequip, i.e. the landing spot of each player.
func Drops(events []model.TelemetryEvent) []model.DropRow {
	var out []model.DropRow
	for _, e := range events {
		if e.Type != model.EventItemUnequip || e.Item == nil {
			continue
		}
		if !strings.Contains(e.Item.ItemID, "Parachute") {
			continue
		}
		out = append(out, model.DropRow{
			Phase:    e.Common.IsGame,
			Location: location(e.Character),
		})
	}
	return out
}

// Weapons returns one row per item pickup whose category is Weapon.
func Weapons(events []model.TelemetryEvent) []model.WeaponRow {
	var out []model.WeaponRow
	for _, e := range events {
		if e.Type != model.EventItemPickup || e.Item == nil {
			continue
		}
		if e.Item.Category != "Weapon" {
			continue
		}
		out = append(out, model.WeaponRow{
			Phase:    e.Common.IsGame,
			ItemID:   e.Item.ItemID,
			Location: location(e.Character),
		})
	}
	return out
}

// Damage returns one row per take-damage event. Blue zone, drowning and
// falling damage has no attacker; the victim's location stands in for it.
func Damage(events []model.TelemetryEvent) []model.DamageRow {
	var out []model.DamageRow
	for _, e := range events {
		if e.Type != model.EventPlayerTakeDamage {
			continue
		}
		victim := location(e.Victim)
		out = append(out, model.DamageRow{
			Phase:            e.Common.IsGame,
			AttackerLocation: locationOr(e.Attacker, victim),
			VictimLocation:   victim,
			Damage:           e.Damage,
			Causer:           e.DamageCauserName,
			Reason:           e.DamageReason,
			Category:         e.DamageTypeCategory,
		})
	}
	return out
}

// Kills returns one row per kill event, with the same killer-less fallback as Damage.
func Kills(events []model.TelemetryEvent) []model.KillRow {
	var out []model.KillRow
	for _, e := range events {
		if e.Type != model.EventPlayerKill {
			continue
		}
		victim := location(e.Victim)
		out = append(out, model.KillRow{
			Phase:          e.Common.IsGame,
			KillerLocation: locationOr(e.Killer, victim),
			VictimLocation: victim,
			Causer:         e.DamageCauserName,
			Reason:         e.DamageReason,
			Category:       e.DamageTypeCategory,
			Distance:       e.Distance,
		})
	}
	return out
}

// MatchRow builds the match info line: API attributes plus start time, map
// and length taken from the LogMatchStart / LogMatchEnd events.
func MatchRow(info model.MatchInfo, events []model.TelemetryEvent) model.MatchRow {
	row := model.MatchRow{
		MatchID:  info.ID,
		Shard:    info.Shard,
		GameMode: info.GameMode,
	}
	var start, end *model.TelemetryEvent
	for i := range events {
		switch events[i].Type {
		case model.EventMatchStart:
			if start == nil {
				start = &events[i]
			}
		case model.EventMatchEnd:
			end = &events[i]
		}
	}
	if start != nil {
		row.StartedAt = start.Timestamp
		row.MapName = FriendlyMapName(start.MapName)
	}
	if start != nil && end != nil {
		row.LengthSeconds = int(end.Timestamp.Sub(start.Timestamp).Seconds())
	}
	return row
}

// location returns the actor's position, or the origin for a missing actor.
func location(a *model.Actor) r3.Vector {
	if a == nil {
		return r3.Vector{}
	}
	return a.Location
}

// locationOr returns the actor's position, or fallback when the actor is absent.
func locationOr(a *model.Actor, fallback r3.Vector) r3.Vector {
	if a == nil {
		return fallback
	}
	return a.Location
}
