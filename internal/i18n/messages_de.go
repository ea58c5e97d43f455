package i18n

// germanMessages contains all German translations.
var germanMessages = map[string]string{
	// Search errors
	"error.link.malformed": "Ein gültiger Link sieht etwa so aus: %s",
	"error.link.unsupported_host": "Der eingegebene Link konnte nicht verarbeitet werden, " +
		"er sollte etwa so aussehen: %s",
	"error.link.unsupported_type": "Diese Art von Spotify-Link können wir noch nicht verarbeiten, " +
		"versuch es mit einem Track, Album oder einer Playlist",
	"error.link.bad_request": "Der eingegebene Spotify-Link scheint nicht zu funktionieren, " +
		"wurde vielleicht zu wenig oder zu viel Text kopiert?",
	"error.link.not_found":               "Der eingegebene Spotify-Link scheint nicht zu funktionieren",
	"error.collection.unknown_seed_type": "Unbekannter Seed-Typ %q, erlaubt sind artist, track oder genre",
	"error.collection.unknown_genre":     "%q ist kein verfügbarer Genre-Seed",
	"error.collection.unknown_feature":   "Unbekanntes Audio-Feature %q",
	"error.collection.invalid_range":     "Ein Bereich braucht 0 <= min <= max <= 100, erhalten [%d, %d]",
	"error.collection.unknown_genre_suggestion": "%q ist kein verfügbarer Genre-Seed, " +
		"meintest du %q?",

	// Warnings
	"warning.collection.truncated": "Diese %s enthält %d Tracks, die Spotify API liefert aber nur " +
		"Daten für %d Tracks pro Anfrage. Vorerst werden nur die ersten %d angezeigt",

	// Session
	"session.authorize": "Öffne die folgende URL, erteile den Zugriff und füge danach die " +
		"Adresse ein, auf der dein Browser landet:\n%s",
	"session.ready": "Mit Spotify verbunden. Füge einen Track-, Album- oder Playlist-Link ein.",

	// Audio features
	"feature.acousticness":     "Akustik",
	"feature.danceability":     "Tanzbarkeit",
	"feature.energy":           "Energie",
	"feature.instrumentalness": "Instrumentalität",
	"feature.liveness":         "Live-Anteil",
	"feature.speechiness":      "Sprachanteil",
	"feature.valence":          "Stimmung",

	// Console
	"console.searching":       "Suche läuft...",
	"console.view.start":      "Füge einen Spotify-Link ein, um seine Audio-Features zu erkunden.",
	"console.view.unknown":    "Nichts zwischengespeichert für %s.",
	"console.no_results":      "Keine Empfehlungen passen zu den aktuellen Bereichen.",
	"console.genres":          "%d Genre-Seeds verfügbar: %s",
	"console.collection":      "Sammlung (%d): %s",
	"console.now_playing":     "Es läuft %s",
	"console.history_edge":    "Kein weiterer Verlauf in dieser Richtung.",
	"console.unknown_command": "Unbekannter Befehl %q, gib :help ein",
	"console.help": "Befehle:\n" +
		"  <link>                       Track-, Album- oder Playlist-Link auflösen\n" +
		"  :back / :forward             im Suchverlauf blättern\n" +
		"  :add <artist|track|genre> <id>\n" +
		"  :remove <artist|track|genre> <id>\n" +
		"  :range <feature> <min> <max> Bereich eines Audio-Features setzen (0-100)\n" +
		"  :recommend                   Empfehlungen für die Sammlung abrufen\n" +
		"  :genres                      verfügbare Genre-Seeds anzeigen\n" +
		"  :play <track id>             Track als gerade laufend markieren\n" +
		"  :state                       aktuellen Suchzustand ausgeben",
}
