// Package console is the line-oriented front end: it reads links and commands and renders the search state.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"featurescout/internal/core"
	"featurescout/internal/i18n"
)

const commandPrefix = ":"

// Controller is the set of operations the console drives.
type Controller interface {
	AwaitingAuthorization() bool
	CompleteAuthorization(ctx context.Context, landing string) error
	EnterURL(ctx context.Context, raw string) error
	Back(ctx context.Context) (bool, error)
	Forward(ctx context.Context) (bool, error)
	Recommend(ctx context.Context) error
	AddSeed(ctx context.Context, entry core.CollectionEntry) (bool, error)
	RemoveSeed(ctx context.Context, entry core.CollectionEntry) (bool, error)
	SetRange(ctx context.Context, featureID string, lower, upper int) error
	GenreSeeds() []string
	Collection() []core.CollectionEntry
	Ranges() core.AudioFeatureRanges
	SetNowPlaying(trackID string)
	NowPlaying() string
	Results() []core.Track
	Content(key core.ContentKey) (core.ContentItem, bool)
	State() core.SearchState
}

type Console struct {
	in        io.Reader
	out       io.Writer
	app       Controller
	features  []core.FeatureDefinition
	localizer *i18n.Localizer
	logger    *zap.Logger
}

func New(in io.Reader, out io.Writer, app Controller, localizer *i18n.Localizer, logger *zap.Logger) *Console {
	return &Console{
		in:        in,
		out:       out,
		app:       app,
		features:  core.DefaultAudioFeatures,
		localizer: localizer,
		logger:    logger,
	}
}

// Run processes input lines until ctx is done or input ends.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	if !c.app.AwaitingAuthorization() {
		c.renderState()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				c.logger.Info("Input closed")
				return nil
			}
			c.handleLine(ctx, line)
		}
	}
}

func (c *Console) handleLine(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if strings.HasPrefix(line, commandPrefix) {
		c.handleCommand(ctx, strings.Fields(strings.TrimPrefix(line, commandPrefix)))
		return
	}

	if c.app.AwaitingAuthorization() {
		if err := c.app.CompleteAuthorization(ctx, line); err != nil {
			c.fail("Authorization failed", err)
			return
		}
		if !c.app.AwaitingAuthorization() {
			c.println(c.localizer.T("session.ready"))
			c.renderState()
		}
		return
	}

	start := time.Now()
	if err := c.app.EnterURL(ctx, line); err != nil {
		c.fail("Search failed", err)
	}
	c.logger.Debug("Link handled", zap.Duration("duration", time.Since(start)))
	c.renderState()
}

func (c *Console) handleCommand(ctx context.Context, fields []string) {
	if len(fields) == 0 {
		c.println(c.localizer.T("console.help"))
		return
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "back", "forward":
		move := c.app.Back
		if name == "forward" {
			move = c.app.Forward
		}
		moved, err := move(ctx)
		if err != nil {
			c.fail("History navigation failed", err)
		}
		if !moved {
			c.println(c.localizer.T("console.history_edge"))
			return
		}
		c.renderState()

	case "recommend":
		if err := c.app.Recommend(ctx); err != nil {
			c.logger.Debug("Recommendations failed", zap.Error(err))
		}
		c.renderState()

	case "add", "remove":
		entry, ok := c.parseEntry(args)
		if !ok {
			c.println(c.localizer.T("console.help"))
			return
		}
		edit := c.app.AddSeed
		if name == "remove" {
			edit = c.app.RemoveSeed
		}
		if _, err := edit(ctx, entry); err != nil {
			c.fail("Collection edit failed", err)
			return
		}
		c.renderCollection()

	case "range":
		if len(args) != 3 {
			c.println(c.localizer.T("console.help"))
			return
		}
		lower, errLower := strconv.Atoi(args[1])
		upper, errUpper := strconv.Atoi(args[2])
		if errLower != nil || errUpper != nil {
			c.println(c.localizer.T("console.help"))
			return
		}
		if err := c.app.SetRange(ctx, strings.ToLower(args[0]), lower, upper); err != nil {
			c.fail("Range update failed", err)
			return
		}
		c.renderCollection()

	case "genres":
		genres := c.app.GenreSeeds()
		c.println(c.localizer.T("console.genres", len(genres), strings.Join(genres, ", ")))

	case "play":
		if len(args) != 1 {
			c.println(c.localizer.T("console.help"))
			return
		}
		c.app.SetNowPlaying(args[0])
		c.println(c.localizer.T("console.now_playing", args[0]))

	case "state":
		c.renderState()
		c.renderCollection()

	case "help":
		c.println(c.localizer.T("console.help"))

	default:
		c.println(c.localizer.T("console.unknown_command", commandPrefix+name))
	}
}

// parseEntry reads "<type> <id...>"; genre ids may contain spaces.
func (c *Console) parseEntry(args []string) (core.CollectionEntry, bool) {
	if len(args) < 2 {
		return core.CollectionEntry{}, false
	}
	return core.CollectionEntry{
		Type: core.SeedType(strings.ToLower(args[0])),
		ID:   strings.Join(args[1:], " "),
	}, true
}

// fail prints user-facing reasons and logs everything else.
func (c *Console) fail(msg string, err error) {
	var inputErr *core.InputError
	if errors.As(err, &inputErr) {
		c.println(inputErr.Reason)
		return
	}
	var searchErr *core.SearchError
	if errors.As(err, &searchErr) {
		// Already reflected in the rendered state.
		return
	}
	c.logger.Warn(msg, zap.Error(err))
	c.println(err.Error())
}

func (c *Console) renderState() {
	state := c.app.State()

	switch {
	case state.Status == core.StatusSearching:
		c.println(c.localizer.T("console.searching"))
		return
	case state.Status == core.StatusError && state.ErrorMessage != "":
		c.println(state.ErrorMessage)
		return
	}

	if state.Notice != "" {
		c.println(state.Notice)
	}

	switch state.View {
	case core.ViewTrackDetail:
		c.renderTrack(state.ViewData.ID)
	case core.ViewAlbumDetail:
		c.renderCollectionView(core.ContentKey{Type: core.ContentAlbum, ID: state.ViewData.ID})
	case core.ViewPlaylistDetail:
		c.renderCollectionView(core.ContentKey{Type: core.ContentPlaylist, ID: state.ViewData.ID})
	case core.ViewSearchResults:
		c.renderResults()
	default:
		c.println(c.localizer.T("console.view.start"))
	}
}

func (c *Console) renderTrack(id string) {
	key := core.ContentKey{Type: core.ContentTrack, ID: id}
	item, ok := c.app.Content(key)
	track, isTrack := item.Track()
	if !ok || !isTrack {
		c.println(c.localizer.T("console.view.unknown", key.String()))
		return
	}

	c.println(fmt.Sprintf("%s - %s (%s)", track.Title, track.ArtistNames(), formatDuration(track.Duration)))
	if track.Album != "" {
		c.println(track.Album)
	}
	if track.URL != "" {
		c.println(track.URL)
	}
	if item.AudioFeatures == nil {
		return
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, def := range c.features {
		value, _ := item.AudioFeatures.Value(def.ID)
		fmt.Fprintf(w, "%s\t%3d\t%s\n", c.localizer.T(def.Name), percent(value), bar(value))
	}
	fmt.Fprintf(w, "Tempo\t%.0f BPM\t\n", item.AudioFeatures.Tempo)
	c.flush(w)
}

func (c *Console) renderCollectionView(key core.ContentKey) {
	item, ok := c.app.Content(key)
	col, isCollection := item.Collection()
	if !ok || !isCollection {
		c.println(c.localizer.T("console.view.unknown", key.String()))
		return
	}

	c.println(fmt.Sprintf("%s - %s (%d)", col.Name, col.Owner, col.Total))

	tracks := make([]core.Track, 0, len(col.TrackIDs))
	features := make(map[string]*core.AudioFeatures, len(col.TrackIDs))
	for _, id := range col.TrackIDs {
		trackItem, ok := c.app.Content(core.ContentKey{Type: core.ContentTrack, ID: id})
		if !ok {
			continue
		}
		if track, ok := trackItem.Track(); ok {
			tracks = append(tracks, *track)
			features[track.ID] = trackItem.AudioFeatures
		}
	}
	c.renderTrackTable(tracks, features)
}

func (c *Console) renderResults() {
	results := c.app.Results()
	if len(results) == 0 {
		c.println(c.localizer.T("console.no_results"))
		return
	}
	c.renderTrackTable(results, nil)
}

func (c *Console) renderTrackTable(tracks []core.Track, features map[string]*core.AudioFeatures) {
	nowPlaying := c.app.NowPlaying()

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	header := []string{" ", "#", "Title", "Artists"}
	if features != nil {
		for _, def := range c.features {
			header = append(header, c.localizer.T(def.Name))
		}
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for i := range tracks {
		marker := " "
		if tracks[i].ID == nowPlaying {
			marker = "*"
		}
		row := []string{marker, strconv.Itoa(i + 1), tracks[i].Title, tracks[i].ArtistNames()}
		if f := features[tracks[i].ID]; f != nil {
			for _, def := range c.features {
				value, _ := f.Value(def.ID)
				row = append(row, strconv.Itoa(percent(value)))
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	c.flush(w)
}

func (c *Console) renderCollection() {
	entries := c.app.Collection()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, string(e.Type)+":"+e.ID)
	}
	c.println(c.localizer.T("console.collection", len(entries), strings.Join(names, ", ")))

	ranges := c.app.Ranges()
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, def := range c.features {
		r, ok := ranges[def.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d-%d\n", c.localizer.T(def.Name), r.Min(), r.Max())
	}
	c.flush(w)
}

func (c *Console) flush(w *tabwriter.Writer) {
	if err := w.Flush(); err != nil {
		c.logger.Debug("Failed to write output", zap.Error(err))
	}
}

func (c *Console) println(s string) {
	if _, err := fmt.Fprintln(c.out, s); err != nil {
		c.logger.Debug("Failed to write output", zap.Error(err))
	}
}

func percent(v float64) int {
	return int(v*100 + 0.5)
}

func bar(v float64) string {
	n := min(max(percent(v)/5, 0), 20)
	return strings.Repeat("#", n) + strings.Repeat(".", 20-n)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
