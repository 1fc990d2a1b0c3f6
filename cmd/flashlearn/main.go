// flashlearn is a flashcard trainer with a terminal UI and a local web UI
// sharing one study controller.
//
//	flashlearn [study]            study in the terminal
//	flashlearn serve              serve the web UI
//	flashlearn import deck.csv    replace the custom cards with a CSV file
//	flashlearn import --git URL path/in/repo.csv
//	flashlearn generate --topic T generate mock cards for a topic
//	flashlearn reset              restore the default cards
//	flashlearn darkmode [on|off|toggle]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/flashlearn/internal/clock"
	"github.com/conorfennell/flashlearn/internal/config"
	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/generator"
	"github.com/conorfennell/flashlearn/internal/gitsource"
	"github.com/conorfennell/flashlearn/internal/importer"
	"github.com/conorfennell/flashlearn/internal/library"
	"github.com/conorfennell/flashlearn/internal/prefs"
	"github.com/conorfennell/flashlearn/internal/storage"
	"github.com/conorfennell/flashlearn/internal/study"
	"github.com/conorfennell/flashlearn/internal/tui"
	"github.com/conorfennell/flashlearn/internal/web"
)

var commands = []string{"study", "serve", "import", "generate", "reset", "darkmode"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is what every command works with once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   storage.Store
	library *library.Library
	out     io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	command := "study"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}
	if command == "help" {
		printHelp(out, config.NewFlagSet("flashlearn"))
		return nil
	}
	if !isCommand(command) {
		return fmt.Errorf("unknown command %q (want one of %s)", command, strings.Join(commands, ", "))
	}

	flags := config.NewFlagSet("flashlearn " + command)
	flags.SetOutput(io.Discard)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(out, flags)
			return nil
		}
		return err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so its logs go to a file or nowhere.
	logOut, logFormat := io.Writer(os.Stderr), "text"
	switch command {
	case "study":
		logOut = io.Discard
	case "serve":
		logFormat = "json"
	}
	logger, closeLog, err := cfg.Logger(logOut, logFormat)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		library: library.Open(store, logger),
		out:     out,
	}

	switch command {
	case "serve":
		return a.serve(ctx)
	case "import":
		return a.importCards(flags.Args())
	case "generate":
		return a.generate(ctx, flags.Args())
	case "reset":
		return a.reset()
	case "darkmode":
		return a.darkMode(flags.Args())
	default:
		return a.study(ctx)
	}
}

func isCommand(name string) bool {
	for _, c := range commands {
		if c == name {
			return true
		}
	}
	return false
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return storage.OpenPostgres(cfg.DSN)
	case "memory":
		return storage.NewMemory(), nil
	default:
		return storage.Open(cfg.DB)
	}
}

func (a *app) controller() *study.Controller {
	return study.NewController(a.library,
		study.WithKnowDelay(a.cfg.KnowDelay),
		study.WithLogger(a.logger),
	)
}

func (a *app) study(ctx context.Context) error {
	filter, err := study.ParseFilter(a.cfg.Category, a.cfg.Difficulty, a.cfg.Count)
	if err != nil {
		return err
	}
	model := tui.NewModel(a.controller(), a.library, a.store, filter)
	return tui.Run(ctx, model)
}

func (a *app) serve(ctx context.Context) error {
	syncer := &gitsource.Syncer{CacheDir: a.cfg.GitCache, Logger: a.logger}
	srv, err := web.NewServer(web.Deps{
		Controller:  a.controller(),
		Library:     a.library,
		Importer:    importer.New(a.library, syncer, a.logger),
		Generator:   generator.NewMock(clock.Real(), a.cfg.GenerateDelay),
		Store:       a.store,
		Logger:      a.logger,
		CORSOrigins: a.cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, a.cfg.Addr)
}

func (a *app) importCards(args []string) error {
	if len(args) != 1 {
		return errors.New("import needs exactly one CSV path")
	}
	syncer := &gitsource.Syncer{CacheDir: a.cfg.GitCache, Progress: os.Stderr, Logger: a.logger}
	im := importer.New(a.library, syncer, a.logger)

	var cards []domain.Card
	var err error
	if a.cfg.Git != "" {
		cards, err = im.ImportGit(a.cfg.Git, args[0])
	} else {
		cards, err = im.ImportFile(args[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d flashcards imported and saved.\n", len(cards))
	return nil
}

func (a *app) generate(ctx context.Context, args []string) error {
	topic := a.cfg.Topic
	if topic == "" {
		topic = strings.Join(args, " ")
	}
	difficulty := domain.Medium
	if a.cfg.Difficulty != "" && a.cfg.Difficulty != study.AllLevels {
		d, err := domain.ParseDifficulty(a.cfg.Difficulty)
		if err != nil {
			return err
		}
		difficulty = d
	}

	gen := generator.NewMock(clock.Real(), a.cfg.GenerateDelay)
	cards, err := gen.Generate(ctx, generator.Request{Topic: topic, Difficulty: difficulty, Count: a.cfg.Count})
	if err != nil {
		return fmt.Errorf("generation failed, try again: %w", err)
	}
	if err := a.library.Append(cards); err != nil {
		return fmt.Errorf("failed to save generated cards: %w", err)
	}
	fmt.Fprintf(a.out, "%d flashcards created for topic: %q.\n", len(cards), strings.TrimSpace(topic))
	return nil
}

func (a *app) reset() error {
	if err := a.library.ResetToDefault(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All progress reset. Default cards restored.")
	return nil
}

func (a *app) darkMode(args []string) error {
	mode := "toggle"
	if len(args) > 0 {
		mode = args[0]
	}

	var on bool
	var err error
	switch mode {
	case "on":
		on, err = true, prefs.SetDarkMode(a.store, true)
	case "off":
		on, err = false, prefs.SetDarkMode(a.store, false)
	case "toggle":
		on, err = prefs.Toggle(a.store)
	case "status":
		on = prefs.DarkMode(a.store)
	default:
		return fmt.Errorf("unknown dark mode %q (want on, off, toggle or status)", mode)
	}
	if err != nil {
		return err
	}
	state := "off"
	if on {
		state = "on"
	}
	fmt.Fprintf(a.out, "Dark mode %s.\n", state)
	return nil
}

func printHelp(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintf(w, `flashlearn - flashcard study sessions in the terminal or the browser

Usage:
  flashlearn [command] [flags]

Commands:
  study                    study in the terminal (default)
  serve                    serve the web UI on --addr
  import <file.csv>        replace the custom cards (--git URL to read from a repository)
  generate [topic]         append mock cards for a topic
  reset                    restore the default cards
  darkmode [on|off|toggle|status]

Flags:
%s`, flags.FlagUsages())
}
