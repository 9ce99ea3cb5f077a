package cli

import (
	"fmt"
	"strings"

	"github.com/yiblet/drawer/internal/config"
	"github.com/yiblet/drawer/internal/store"
)

// Args represents the top-level command structure
type Args struct {
	DB         *string `arg:"--db" help:"Database file (default: $XDG_DATA_HOME/drawer/drawer.db)"`
	ConfigPath *string `arg:"--config" help:"Config file (default: $XDG_CONFIG_HOME/drawer/config.yaml)"`
	Verbose    bool    `arg:"-v,--verbose" help:"Log debug output"`
	Quiet      bool    `arg:"-q,--quiet" help:"Disable logging"`

	Watch  *WatchCmd  `arg:"subcommand:watch" help:"Record clipboard changes until interrupted"`
	List   *ListCmd   `arg:"subcommand:list" help:"List records in a tag"`
	Get    *GetCmd    `arg:"subcommand:get" help:"Show one record"`
	Paste  *PasteCmd  `arg:"subcommand:paste" help:"Put a record back on the clipboard (on X11, stays running until the clipboard is replaced)"`
	Delete *DeleteCmd `arg:"subcommand:delete" help:"Delete records"`
	Pin    *PinCmd    `arg:"subcommand:pin" help:"Copy a record into a tag"`
	Tags   *TagsCmd   `arg:"subcommand:tags" help:"List tags"`
	Tag    *TagCmd    `arg:"subcommand:tag" help:"Create or delete tags"`
	Sweep  *SweepCmd  `arg:"subcommand:sweep" help:"Trim history to the configured limit now"`
	Config *ConfigCmd `arg:"subcommand:config" help:"Manage configuration"`
	Browse *BrowseCmd `arg:"subcommand:browse" help:"Browse history interactively"`
}

// WatchCmd represents the 'drawer watch' command
type WatchCmd struct {
	JSON bool `arg:"--json" help:"Print events as JSON lines"`
}

// ListCmd represents the 'drawer list' command
type ListCmd struct {
	Tag           int64   `arg:"-t,--tag" default:"0" help:"Tag to list"`
	Search        *string `arg:"-s,--search" help:"Only show records matching this regex"`
	CaseSensitive bool    `arg:"-C,--case-sensitive" help:"Match case when searching"`
	JSON          bool    `arg:"--json" help:"Print records as JSON"`
}

// GetCmd represents the 'drawer get' command
type GetCmd struct {
	ID   int64 `arg:"positional,required" help:"Record id"`
	JSON bool  `arg:"--json" help:"Print the record as JSON"`
}

// PasteCmd represents the 'drawer paste' command
type PasteCmd struct {
	ID int64 `arg:"positional,required" help:"Record id"`
}

// DeleteCmd represents the 'drawer delete' command
type DeleteCmd struct {
	IDs []int64 `arg:"positional,required" help:"Record ids"`
}

// PinCmd represents the 'drawer pin' command
type PinCmd struct {
	ID  int64 `arg:"positional,required" help:"Record id"`
	Tag int64 `arg:"positional,required" help:"Destination tag id"`
}

// TagsCmd represents the 'drawer tags' command
type TagsCmd struct {
	JSON bool `arg:"--json" help:"Print tags as JSON"`
}

// TagCmd represents the 'drawer tag' command with subcommands
type TagCmd struct {
	Create *TagCreateCmd `arg:"subcommand:create" help:"Create a tag"`
	Delete *TagDeleteCmd `arg:"subcommand:delete" help:"Delete a tag and the records only it holds"`
}

// TagCreateCmd represents 'drawer tag create'
type TagCreateCmd struct {
	Name string `arg:"positional,required" help:"Tag name"`
}

// TagDeleteCmd represents 'drawer tag delete'
type TagDeleteCmd struct {
	ID int64 `arg:"positional,required" help:"Tag id"`
}

// SweepCmd represents the 'drawer sweep' command
type SweepCmd struct{}

// ConfigCmd represents the 'drawer config' command with subcommands
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Get configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"List all configuration"`
}

// ConfigGetCmd represents 'drawer config get'
type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key"`
}

// ConfigSetCmd represents 'drawer config set'
type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"Configuration value"`
}

// ConfigListCmd represents 'drawer config list'
type ConfigListCmd struct{}

// BrowseCmd represents the 'drawer browse' command
type BrowseCmd struct {
	Tag   int64 `arg:"-t,--tag" default:"0" help:"Tag to open"`
	Watch bool  `arg:"-w,--watch" help:"Record clipboard changes while browsing"`
}

// Description returns the program description
func (Args) Description() string {
	return "drawer - clipboard history with tags"
}

// Version returns the program version
func (Args) Version() string {
	return "drawer 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  drawer watch                     # Record clipboard changes
  drawer watch --json              # ...and print each event
  drawer list                      # Clipboard history, newest first
  drawer list -s 'todo' -t 1       # Search tag 1
  drawer get 42                    # Show record 42
  drawer paste 42                  # Put record 42 back on the clipboard
  drawer tag create work           # New tag
  drawer pin 42 1                  # Copy record 42 into tag 1
  drawer browse --watch            # Interactive browser

Configuration keys: ` + strings.Join(config.Keys, ", ")
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	if args.Verbose && args.Quiet {
		return fmt.Errorf("cannot specify both --verbose and --quiet")
	}
	switch {
	case args.List != nil:
		return validTag(args.List.Tag)
	case args.Get != nil:
		return validID(args.Get.ID)
	case args.Paste != nil:
		return validID(args.Paste.ID)
	case args.Delete != nil:
		return args.Delete.Validate()
	case args.Pin != nil:
		if err := validID(args.Pin.ID); err != nil {
			return err
		}
		return validTag(args.Pin.Tag)
	case args.Tag != nil:
		return args.Tag.Validate()
	case args.Config != nil:
		return args.Config.Validate()
	case args.Browse != nil:
		return validTag(args.Browse.Tag)
	}
	return nil
}

// Validate validates delete command arguments
func (d *DeleteCmd) Validate() error {
	if len(d.IDs) == 0 {
		return fmt.Errorf("at least one record id is required")
	}
	for _, id := range d.IDs {
		if err := validID(id); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates tag command arguments
func (t *TagCmd) Validate() error {
	switch {
	case t.Create != nil && t.Delete != nil:
		return fmt.Errorf("specify only one of create or delete")
	case t.Create != nil:
		if strings.TrimSpace(t.Create.Name) == "" {
			return fmt.Errorf("tag name cannot be empty")
		}
	case t.Delete != nil:
		if t.Delete.ID == store.HistoryTagID {
			return fmt.Errorf("the clipboard history tag cannot be deleted")
		}
		return validTag(t.Delete.ID)
	default:
		return fmt.Errorf("tag requires a subcommand: create or delete")
	}
	return nil
}

// Validate validates config command arguments
func (c *ConfigCmd) Validate() error {
	n := 0
	for _, set := range []bool{c.Get != nil, c.Set != nil, c.List != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("config requires exactly one subcommand: get, set, or list")
	}

	var key string
	switch {
	case c.Get != nil:
		key = c.Get.Key
	case c.Set != nil:
		key = c.Set.Key
	default:
		return nil
	}
	for _, k := range config.Keys {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(config.Keys, ", "))
}

func validID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("record id must be positive")
	}
	return nil
}

func validTag(id int64) error {
	if id < 0 {
		return fmt.Errorf("tag id must be non-negative")
	}
	return nil
}
