// Package console provides the interactive debug console of the world
// subsystem: a small REPL that reads commands from stdin (or any reader)
// and executes them against the world on its tick thread.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/voidreach/voxelcore/server/world"
	"github.com/voidreach/voxelcore/server/world/block"
)

const (
	defaultPromptPrefix = "> "
	maxHistoryEntries   = 128
)

// Console reads commands from an io.Reader (defaulting to os.Stdin) and
// executes them on the provided world.
type Console struct {
	w       *world.World
	reg     *block.Registry
	log     *slog.Logger
	reader  io.Reader
	history []string
}

// New returns a Console bound to the provided world and block registry.
func New(w *world.World, reg *block.Registry, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		w:      w,
		reg:    reg,
		log:    log,
		reader: os.Stdin,
	}
}

// WithReader sets a custom reader for the console input. It enables testing
// the console without relying on os.Stdin.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Run starts consuming commands. It blocks until the context is cancelled
// or the underlying reader reaches EOF.
func (c *Console) Run(ctx context.Context) {
	if c.reader != os.Stdin {
		c.runScanner(ctx)
		return
	}
	c.runInteractive(ctx)
}

func (c *Console) runScanner(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("console input error", "err", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

func (c *Console) runInteractive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := prompt.Input(defaultPromptPrefix, c.complete,
			prompt.OptionTitle("Voxelcore Console"),
			prompt.OptionHistory(c.history),
			prompt.OptionPrefix(defaultPromptPrefix),
			prompt.OptionCompletionOnDown(),
			prompt.OptionMaxSuggestion(12),
		)

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

// command describes one console verb for dispatch and completion.
type command struct {
	usage string
	help  string
	run   func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"setblock": {
			usage: "setblock <x> <y> <z> <block>",
			help:  "Place a block by name at a world position",
			run:   runSetBlock,
		},
		"getblock": {
			usage: "getblock <x> <y> <z>",
			help:  "Print the block at a world position",
			run:   runGetBlock,
		},
		"raycast": {
			usage: "raycast <ox> <oy> <oz> <dx> <dy> <dz> [maxDist]",
			help:  "Cast a ray and print the first solid hit",
			run:   runRaycast,
		},
		"status": {
			usage: "status",
			help:  "Print loaded columns and task metrics",
			run:   runStatus,
		},
		"save": {
			usage: "save",
			help:  "Persist all loaded columns and world metadata",
			run:   runSave,
		},
		"tp": {
			usage: "tp <x> <y> <z>",
			help:  "Move the observer position driving chunk loading",
			run:   runTeleport,
		},
		"help": {
			usage: "help",
			help:  "List available commands",
			run:   runHelp,
		},
	}
}

func (c *Console) execute(line string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	c.history = append(c.history, line)
	if len(c.history) > maxHistoryEntries {
		c.history = c.history[len(c.history)-maxHistoryEntries:]
	}

	fields := strings.Fields(line)
	cmd, ok := commands[strings.ToLower(fields[0])]
	if !ok {
		c.log.Info("unknown command; try 'help'", "input", fields[0])
		return
	}
	if err := cmd.run(c, fields[1:]); err != nil {
		c.log.Error("command failed", "command", fields[0], "err", err)
	}
}

func (c *Console) complete(doc prompt.Document) []prompt.Suggest {
	text := doc.TextBeforeCursor()
	fields := strings.Fields(text)
	word := doc.GetWordBeforeCursor()

	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(text, " ")) {
		var out []prompt.Suggest
		for name, cmd := range commands {
			out = append(out, prompt.Suggest{Text: name, Description: cmd.help})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
		return prompt.FilterHasPrefix(out, word, true)
	}

	// The only parameter worth completing is setblock's block name.
	if strings.EqualFold(fields[0], "setblock") {
		return prompt.FilterHasPrefix(c.blockSuggestions(), word, true)
	}
	return nil
}

func (c *Console) blockSuggestions() []prompt.Suggest {
	var out []prompt.Suggest
	for _, props := range c.reg.All() {
		out = append(out, prompt.Suggest{Text: props.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

func parseCoords(args []string) (world.BlockPos, error) {
	if len(args) < 3 {
		return world.BlockPos{}, fmt.Errorf("expected x y z, got %d arguments", len(args))
	}
	var vals [3]int64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			return world.BlockPos{}, fmt.Errorf("parsing coordinate %q: %w", args[i], err)
		}
		vals[i] = v
	}
	return world.BlockPos{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func runSetBlock(c *Console, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: %s", commands["setblock"].usage)
	}
	pos, err := parseCoords(args[:3])
	if err != nil {
		return err
	}
	id, ok := c.reg.ByName(args[3])
	if !ok {
		return fmt.Errorf("no such block %q", args[3])
	}
	<-c.w.Exec(func(w *world.World) {
		if w.SetBlock(pos, id) {
			c.log.Info("block placed", "pos", pos, "block", args[3])
		} else {
			c.log.Info("no change (unloaded, out of range, or same block)", "pos", pos)
		}
	})
	return nil
}

func runGetBlock(c *Console, args []string) error {
	pos, err := parseCoords(args)
	if err != nil {
		return err
	}
	<-c.w.Exec(func(w *world.World) {
		id := w.GetBlock(pos)
		c.log.Info("block", "pos", pos, "id", id, "name", c.reg.ByID(id).Name)
	})
	return nil
}

func runRaycast(c *Console, args []string) error {
	if len(args) < 6 {
		return fmt.Errorf("usage: %s", commands["raycast"].usage)
	}
	var vals [6]float64
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", args[i], err)
		}
		vals[i] = v
	}
	maxDist := 64.0
	if len(args) > 6 {
		v, err := strconv.ParseFloat(args[6], 64)
		if err != nil {
			return fmt.Errorf("parsing max distance %q: %w", args[6], err)
		}
		maxDist = v
	}
	origin := mgl64.Vec3{vals[0], vals[1], vals[2]}
	dir := mgl64.Vec3{vals[3], vals[4], vals[5]}
	if dir.Len() == 0 {
		return fmt.Errorf("direction must be non-zero")
	}
	dir = dir.Normalize()

	<-c.w.Exec(func(w *world.World) {
		hit, ok := w.Raycast(origin, dir, maxDist)
		if !ok {
			c.log.Info("raycast missed", "maxDist", maxDist)
			return
		}
		c.log.Info("raycast hit",
			"pos", hit.Pos, "face", hit.Face, "distance", hit.Distance,
			"block", c.reg.ByID(w.GetBlock(hit.Pos)).Name)
	})
	return nil
}

func runStatus(c *Console, args []string) error {
	<-c.w.Exec(func(w *world.World) {
		c.log.Info("world status",
			"columns", w.LoadedColumnCount(),
			"player", w.PlayerPosition())
		if m := w.Metrics(); m != nil {
			for _, id := range m.TaskIDs() {
				t, _ := m.Task(id)
				c.log.Info("task", "id", id,
					"execs", t.Executions, "skips", t.Skips,
					"units", t.WorkUnits, "emaTime", t.ExecTimeEMA)
			}
		}
	})
	return nil
}

func runSave(c *Console, args []string) error {
	<-c.w.Exec(func(w *world.World) {
		w.Save(time.Now())
		c.log.Info("world saved")
	})
	return nil
}

func runTeleport(c *Console, args []string) error {
	pos, err := parseCoords(args)
	if err != nil {
		return err
	}
	<-c.w.Exec(func(w *world.World) {
		w.SetPlayerPosition(mgl64.Vec3{float64(pos.X), float64(pos.Y), float64(pos.Z)})
		c.log.Info("observer moved", "pos", pos)
	})
	return nil
}

func runHelp(c *Console, args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.log.Info(commands[name].usage, "help", commands[name].help)
	}
	return nil
}
