package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Search errors
	"error.link.malformed": "A valid URL should look something like %s",
	"error.link.unsupported_host": "The link you entered could not be processed, " +
		"it should look something like: %s",
	"error.link.unsupported_type": "We can't process the type of Spotify link you entered yet, " +
		"try entering a track, album or playlist",
	"error.link.bad_request": "The Spotify link you entered doesn't seem to work, " +
		"did you perhaps copy too little or too much text?",
	"error.link.not_found":               "The Spotify link you entered doesn't seem to work",
	"error.collection.unknown_seed_type": "Unknown seed type %q, use artist, track or genre",
	"error.collection.unknown_genre":     "%q is not one of the available genre seeds",
	"error.collection.unknown_feature":   "Unknown audio feature %q",
	"error.collection.invalid_range":     "A range needs 0 <= min <= max <= 100, got [%d, %d]",
	"error.collection.unknown_genre_suggestion": "%q is not one of the available genre seeds, " +
		"did you mean %q?",

	// Warnings
	"warning.collection.truncated": "This %s contains %d tracks, but the Spotify API limits us to " +
		"getting data for %d tracks per request. For now, only the first %d items are shown",

	// Session
	"session.authorize": "Open the following URL to grant access, then paste the address " +
		"your browser lands on:\n%s",
	"session.ready": "Connected to Spotify. Paste a track, album or playlist link.",

	// Audio features
	"feature.acousticness":     "Acousticness",
	"feature.danceability":     "Danceability",
	"feature.energy":           "Energy",
	"feature.instrumentalness": "Instrumentalness",
	"feature.liveness":         "Liveness",
	"feature.speechiness":      "Speechiness",
	"feature.valence":          "Valence",

	// Console
	"console.searching":       "Searching...",
	"console.view.start":      "Paste a Spotify link to explore its audio features.",
	"console.view.unknown":    "Nothing cached for %s.",
	"console.no_results":      "No recommendations matched the current ranges.",
	"console.genres":          "%d genre seeds available: %s",
	"console.collection":      "Collection (%d): %s",
	"console.now_playing":     "Now playing %s",
	"console.history_edge":    "No further history in that direction.",
	"console.unknown_command": "Unknown command %q, type :help",
	"console.help": "Commands:\n" +
		"  <link>                       resolve a track, album or playlist link\n" +
		"  :back / :forward             walk the search history\n" +
		"  :add <artist|track|genre> <id>\n" +
		"  :remove <artist|track|genre> <id>\n" +
		"  :range <feature> <min> <max> set an audio feature range (0-100)\n" +
		"  :recommend                   fetch recommendations for the collection\n" +
		"  :genres                      list available genre seeds\n" +
		"  :play <track id>             mark a track as now playing\n" +
		"  :state                       print the current search state",
}
