package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yiblet/drawer/internal/appdir"
	"github.com/yiblet/drawer/internal/clipboard"
	"github.com/yiblet/drawer/internal/clipboard/sysboard"
	"github.com/yiblet/drawer/internal/config"
	"github.com/yiblet/drawer/internal/event"
	"github.com/yiblet/drawer/internal/history"
	"github.com/yiblet/drawer/internal/ingest"
	"github.com/yiblet/drawer/internal/store/dbstore"
	"github.com/yiblet/drawer/internal/sweeper"
	"github.com/yiblet/drawer/internal/tui"
	"github.com/yiblet/drawer/internal/view"
)

const timeLayout = "2006-01-02 15:04:05"

// Options overrides the CLI's collaborators. Zero values select the
// system clipboard, stdout, stderr, and the XDG directories.
type Options struct {
	Backend clipboard.Backend
	Out     io.Writer
	Err     io.Writer
	Dirs    *appdir.Dirs
	Context context.Context
}

// CLI handles the command-line interface
type CLI struct {
	args    *Args
	out     io.Writer
	errOut  io.Writer
	dirs    appdir.Dirs
	ctx     context.Context
	backend clipboard.Backend

	configManager *config.ConfigManager
	config        *config.Config
	logger        *slog.Logger

	store    *dbstore.SQLiteStore
	pipeline *ingest.Pipeline
	sweeper  *sweeper.Sweeper
	manager  *history.Manager
	sink     event.Sink
	cancel   context.CancelFunc
	running  chan struct{}
}

// New creates a CLI for args. The configuration is loaded here; the
// database is opened only by commands that need it.
func New(args *Args, opts Options) (*CLI, error) {
	c := &CLI{
		args:    args,
		out:     opts.Out,
		errOut:  opts.Err,
		ctx:     opts.Context,
		backend: opts.Backend,
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.errOut == nil {
		c.errOut = os.Stderr
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if opts.Dirs != nil {
		c.dirs = *opts.Dirs
	} else {
		c.dirs = appdir.Default()
	}
	if c.backend == nil {
		c.backend = sysboard.New(sysboard.WithMarkerFile(c.dirs.MarkerFile()))
	}

	configPath := c.dirs.ConfigFile()
	if args.ConfigPath != nil {
		configPath = *args.ConfigPath
	}
	c.configManager = config.NewConfigManagerWithPath(configPath)

	cfg, err := c.configManager.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.config = cfg

	level, err := logLevel(cfg.LogLevel, args.Verbose, args.Quiet)
	if err != nil {
		return nil, err
	}
	c.logger = newLogger(c.errOut, level)

	return c, nil
}

// Logger returns the logger built from the configuration and flags.
func (c *CLI) Logger() *slog.Logger {
	return c.logger
}

// DatabasePath returns the database file the CLI uses.
// Precedence: --db flag > config > default.
func (c *CLI) DatabasePath() string {
	if c.args.DB != nil {
		return c.dirs.DatabasePath(*c.args.DB)
	}
	return c.dirs.DatabasePath(c.config.DatabasePath)
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute() error {
	args := c.args
	if err := args.Validate(); err != nil {
		return err
	}

	if args.Config != nil {
		return c.executeConfig(args.Config)
	}

	switch {
	case args.Watch != nil:
		return c.executeWatch(args.Watch)
	case args.Browse != nil:
		return c.executeBrowse(args.Browse)
	}

	if err := c.open(nil); err != nil {
		return err
	}
	defer c.Close()

	switch {
	case args.List != nil:
		return c.executeList(args.List)
	case args.Get != nil:
		return c.executeGet(args.Get)
	case args.Paste != nil:
		return c.executePaste(args.Paste)
	case args.Delete != nil:
		return c.executeDelete(args.Delete)
	case args.Pin != nil:
		v, err := c.manager.Pin(args.Pin.ID, args.Pin.Tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Pinned record %d to tag %d as record %d\n", args.Pin.ID, args.Pin.Tag, v.ID)
		return nil
	case args.Tags != nil:
		return c.executeTags(args.Tags)
	case args.Tag != nil:
		return c.executeTag(args.Tag)
	case args.Sweep != nil:
		ids, err := c.manager.SweepNow()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Swept %d records\n", len(ids))
		return nil
	default:
		return c.executeList(&ListCmd{})
	}
}

// open wires store, pipeline, sweeper and manager around sink.
func (c *CLI) open(sink event.Sink) error {
	if c.store != nil {
		return nil
	}

	dbPath := c.DatabasePath()
	if err := appdir.EnsureParent(dbPath); err != nil {
		return err
	}

	var storeOpts []dbstore.Option
	if c.config.HistoryTagName != "" {
		storeOpts = append(storeOpts, dbstore.WithHistoryTagName(c.config.HistoryTagName))
	}
	st, err := dbstore.NewSQLiteStore(dbPath, storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.logger.Debug("opened database", "path", dbPath)

	if sink == nil {
		sink = event.LogSink{Logger: c.logger}
	}
	conv := view.NewConverter(view.ImageThumbnailer{Size: c.config.ThumbnailSize}, c.logger)

	c.store = st
	c.sink = sink
	c.pipeline = ingest.New(c.backend, st, ingest.Options{
		Sink:      sink,
		Converter: conv,
		Logger:    c.logger,
	})
	c.sweeper = sweeper.New(st, sweeper.Options{
		Limit:    c.config.HistoryLimit,
		Interval: c.config.Interval(),
		Sink:     sink,
		Logger:   c.logger,
	})
	c.manager = history.NewManager(st, history.Options{
		Converter: conv,
		Sink:      sink,
		Paster:    c.pipeline,
		Sweeper:   c.sweeper,
		Logger:    c.logger,
	})
	return nil
}

// Close tears everything down: the pipeline first, then the sweeper, the
// sink and finally the store.
func (c *CLI) Close() error {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.running != nil {
		<-c.running
		c.running = nil
	}
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	if closer, ok := c.sink.(io.Closer); ok {
		closer.Close()
	}
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// executeWatch records clipboard changes until the context is cancelled or
// the process is interrupted.
func (c *CLI) executeWatch(cmd *WatchCmd) error {
	var sink event.Sink = event.LogSink{Logger: c.logger}
	if cmd.JSON {
		sink = event.Multi(sink, event.NewWriterSink(c.out))
	}
	if err := c.open(sink); err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(c.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, c.cancel = context.WithCancel(ctx)

	c.sweeper.Start()
	return c.pipeline.Run(ctx)
}

// executeBrowse runs the interactive browser, optionally recording
// clipboard changes in the background.
func (c *CLI) executeBrowse(cmd *BrowseCmd) error {
	// the terminal belongs to the browser
	c.logger = slog.New(slog.DiscardHandler)

	sink := event.NewChannelSink()
	if err := c.open(sink); err != nil {
		sink.Close()
		return err
	}
	defer c.Close()

	model := tui.New(c.manager, cmd.Tag)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(c.ctx))

	go func() {
		for e := range sink.Events() {
			p.Send(tui.EventMsg{Event: e})
		}
	}()

	if cmd.Watch {
		ctx, cancel := context.WithCancel(c.ctx)
		c.cancel = cancel
		c.running = make(chan struct{})
		c.sweeper.Start()
		go func() {
			defer close(c.running)
			if err := c.pipeline.Run(ctx); err != nil {
				p.Send(tui.ErrMsg{Err: err})
			}
		}()
	}

	_, err := p.Run()
	return err
}

func (c *CLI) executeList(cmd *ListCmd) error {
	var (
		views []*view.View
		err   error
	)
	if cmd.Search != nil {
		views, err = c.manager.Search(cmd.Tag, *cmd.Search, cmd.CaseSensitive)
	} else {
		views, err = c.manager.ListRecords(cmd.Tag)
	}
	if err != nil {
		return err
	}

	if cmd.JSON {
		return c.writeJSON(views)
	}
	if len(views) == 0 {
		fmt.Fprintln(c.out, "No records found")
		return nil
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10), v.Type, formatTime(v.Time), v.Description, v.Title,
		})
	}
	return writeTable(c.out, []string{"ID", "TYPE", "CREATED", "DESCRIPTION", "TITLE"}, rows)
}

func (c *CLI) executeGet(cmd *GetCmd) error {
	v, err := c.manager.Get(cmd.ID)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return c.writeJSON(v)
	}

	fmt.Fprintf(c.out, "%-12s %d\n", "ID:", v.ID)
	fmt.Fprintf(c.out, "%-12s %s\n", "Type:", v.Type)
	fmt.Fprintf(c.out, "%-12s %s\n", "Created:", formatTime(v.Time))
	fmt.Fprintf(c.out, "%-12s %s\n", "Description:", v.Description)

	switch v.Type {
	case view.TypeText, view.TypeFile:
		fmt.Fprintf(c.out, "\n%s\n", v.Data)
	}
	return nil
}

// executePaste writes a record to the clipboard and, when the backend
// serves the content itself, keeps serving it until it is replaced.
func (c *CLI) executePaste(cmd *PasteCmd) error {
	if err := c.manager.Paste(cmd.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Pasted record %d\n", cmd.ID)

	holder, ok := c.backend.(clipboard.Holder)
	if !ok {
		return nil
	}
	ctx, stop := signal.NotifyContext(c.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.logger.Debug("holding clipboard until it is replaced")
	return holder.Hold(ctx)
}

func (c *CLI) executeDelete(cmd *DeleteCmd) error {
	for _, id := range cmd.IDs {
		if err := c.manager.Delete(id); err != nil {
			return fmt.Errorf("failed to delete record %d: %w", id, err)
		}
	}
	fmt.Fprintf(c.out, "Deleted %d records\n", len(cmd.IDs))
	return nil
}

func (c *CLI) executeTags(cmd *TagsCmd) error {
	tags, err := c.manager.ListTags()
	if err != nil {
		return err
	}
	if cmd.JSON {
		return c.writeJSON(tags)
	}

	rows := make([][]string, 0, len(tags))
	for _, tag := range tags {
		n, err := c.store.Count(tag.ID)
		if err != nil {
			return err
		}
		rows = append(rows, []string{strconv.FormatInt(tag.ID, 10), tag.Name, strconv.Itoa(n)})
	}
	return writeTable(c.out, []string{"ID", "NAME", "RECORDS"}, rows)
}

func (c *CLI) executeTag(cmd *TagCmd) error {
	switch {
	case cmd.Create != nil:
		tag, err := c.manager.CreateTag(cmd.Create.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created tag %d: %s\n", tag.ID, tag.Name)
	case cmd.Delete != nil:
		ids, err := c.manager.DeleteTag(cmd.Delete.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted tag %d and %d records\n", cmd.Delete.ID, len(ids))
	}
	return nil
}

// executeConfig handles the 'drawer config' command
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.configManager.Get(cmd.Get.Key)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, value)
	case cmd.Set != nil:
		if err := c.configManager.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Set %s = %s\n", cmd.Set.Key, cmd.Set.Value)
	case cmd.List != nil:
		values, err := c.configManager.List()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Configuration (%s):\n", c.configManager.GetConfigPath())
		for _, k := range config.Keys {
			fmt.Fprintf(c.out, "  %s: %s\n", k, values[k])
		}
	}
	return nil
}

func (c *CLI) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Local().Format(timeLayout)
}
