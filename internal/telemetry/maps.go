package telemetry

// mapNames maps telemetry map identifiers to their in-game names.
var mapNames = map[string]string{
	"Baltic_Main":     "Erangel",
	"Chimera_Main":    "Paramo",
	"Desert_Main":     "Miramar",
	"DihorOtok_Main":  "Vikendi",
	"Erangel_Main":    "Erangel",
	"Heaven_Main":     "Haven",
	"Kiki_Main":       "Deston",
	"Neon_Main":       "Rondo",
	"Range_Main":      "Camp Jackal",
	"Savage_Main":     "Sanhok",
	"Summerland_Main": "Karakin",
	"Tiger_Main":      "Taego",
}

// FriendlyMapName returns the in-game name for a telemetry map id. Unknown
// ids are returned unchanged.
func FriendlyMapName(id string) string {
	if name, ok := mapNames[id]; ok {
		return name
	}
	return id
}
