// ragchat - streaming terminal client for a RAG answering service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/ragchat-cli/internal/answer"
	"github.com/jeranaias/ragchat-cli/internal/config"
	"github.com/jeranaias/ragchat-cli/internal/engine"
	"github.com/jeranaias/ragchat-cli/internal/model"
	"github.com/jeranaias/ragchat-cli/internal/session"
	"github.com/jeranaias/ragchat-cli/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ragchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--version", "-v":
			fmt.Printf("ragchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
			return nil
		case "--help", "-h":
			printUsage()
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := zap.NewAtomicLevelAt(parseLevel(cfg.Log.Level))
	logger, err := newFileLogger(cfg, level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Session store, optionally backed by SQLite.
	storeOpts := []session.Option{session.WithLogger(logger.Named("session"))}
	if cfg.Storage.Enabled {
		dbPath, err := cfg.DatabasePath()
		if err != nil {
			return err
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open session database: %w", err)
		}
		defer db.Close()
		storeOpts = append(storeOpts, session.WithDatabase(db))
	}
	store, err := session.NewStore(storeOpts...)
	if err != nil {
		return err
	}

	client := answer.NewClientWithConfig(&answer.ClientConfig{
		BaseURL:       cfg.Service.URL,
		StreamPath:    cfg.Service.StreamPath,
		Timeout:       time.Duration(cfg.Service.TimeoutSecs) * time.Second,
		StreamTimeout: time.Duration(cfg.Service.StreamTimeoutSecs) * time.Second,
	})

	eng := engine.New(store, client, engine.WithLogger(logger.Named("engine")))

	// Follow the config file so endpoint and log level changes apply
	// without a restart.
	if path, err := config.ConfigPath(); err == nil {
		watcher, werr := config.NewWatcher(path, 300*time.Millisecond, func(next *config.Config) {
			client.SetBaseURL(next.Service.URL)
			level.SetLevel(parseLevel(next.Log.Level))
			logger.Info("configuration reloaded", zap.String("service_url", next.Service.URL))
		})
		if werr == nil {
			if werr := watcher.Watch(); werr == nil {
				defer watcher.Close()
			}
		}
	}

	// Ctrl+C during a stream cancels it instead of killing the process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			eng.Cancel()
		}
	}()

	return repl(cfg, store, eng, logger)
}

// =============================================================================
// LOGGING
// =============================================================================

// parseLevel maps a config level string to a zap level.
func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// newFileLogger builds a JSON file logger. The terminal stays clean for
// the conversation; diagnostics go to the log file only.
func newFileLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	path, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	return zcfg.Build()
}

// =============================================================================
// REPL
// =============================================================================

// repl runs the interactive loop: plain input is sent as a question to
// the active session, slash commands manage sessions.
func repl(cfg *config.Config, store *session.Store, eng *engine.Engine, logger *zap.Logger) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyFile := loadHistory(line)
	defer saveHistory(line, historyFile)

	if store.Active() == nil {
		store.Create()
	}

	fmt.Printf("ragchat %s - connected to %s\n", Version, cfg.Service.URL)
	fmt.Println("Type a question, or /help for commands.")

	for {
		input, err := line.Prompt("ragchat> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// EOF (Ctrl+D) exits cleanly.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := handleCommand(input, store)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[error] %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := ask(eng, store, input); err != nil {
			logger.Warn("exchange failed", zap.Error(err))
		}
	}
}

// ask sends one question on the active session and renders progress.
func ask(eng *engine.Engine, store *session.Store, question string) error {
	active := store.Active()
	if active == nil {
		active = store.Create()
	}

	fmt.Println()
	printed := 0
	err := eng.Send(context.Background(), active.ID, question, func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventToken:
			// Content is cumulative; print only the new tail.
			fmt.Print(ev.Content[printed:])
			printed = len(ev.Content)
		case engine.EventDone:
			fmt.Println()
			printCitations(ev.Citations)
		case engine.EventCancelled:
			fmt.Println("\n[cancelled]")
		case engine.EventError:
			fmt.Println(ev.Content)
		}
	})
	fmt.Println()

	if errors.Is(err, engine.ErrBusy) {
		fmt.Fprintln(os.Stderr, "[error] another question is still streaming")
		return nil
	}
	if answer.IsNetworkError(err) {
		fmt.Fprintln(os.Stderr, "[hint] the answering service did not respond; check service.url in ~/.ragchat/config.toml")
	}
	return err
}

func printCitations(citations []string) {
	if len(citations) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for i, c := range citations {
		fmt.Printf("  [%d] %s\n", i+1, c)
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand dispatches a slash command. Returns true when the REPL
// should exit.
func handleCommand(input string, store *session.Store) (bool, error) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help":
		printUsage()
		return false, nil

	case "/new":
		sess := store.Create()
		fmt.Printf("Started %s\n", sess.Title)
		return false, nil

	case "/sessions":
		printSessions(store)
		return false, nil

	case "/select":
		if len(args) != 1 {
			return false, errors.New("usage: /select <number>")
		}
		sess, err := resolveSession(store, args[0])
		if err != nil {
			return false, err
		}
		store.Select(sess.ID)
		fmt.Printf("Switched to %q\n", sess.Title)
		return false, nil

	case "/delete":
		if len(args) != 1 {
			return false, errors.New("usage: /delete <number>")
		}
		sess, err := resolveSession(store, args[0])
		if err != nil {
			return false, err
		}
		store.Delete(sess.ID)
		fmt.Printf("Deleted %q\n", sess.Title)
		return false, nil

	case "/history":
		printHistory(store.Active())
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

// resolveSession accepts a 1-based index into the session list.
func resolveSession(store *session.Store, arg string) (*model.Session, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("not a session number: %s", arg)
	}
	sessions := store.List()
	if n < 1 || n > len(sessions) {
		return nil, fmt.Errorf("no session %d (have %d)", n, len(sessions))
	}
	return sessions[n-1], nil
}

func printSessions(store *session.Store) {
	sessions := store.List()
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return
	}
	active := store.Active()
	for i, sess := range sessions {
		marker := " "
		if active != nil && sess.ID == active.ID {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s (%d messages)\n", marker, i+1, sess.Title, sess.MessageCount())
		if last := sess.LastMessage(); last != nil {
			fmt.Printf("       %s: %s\n", last.Role.DisplayName(), last.Preview(60))
		}
	}
}

func printHistory(sess *model.Session) {
	if sess == nil || len(sess.Messages) == 0 {
		fmt.Println("No messages yet.")
		return
	}
	for _, msg := range sess.Messages {
		fmt.Printf("%s: %s\n", msg.Role.DisplayName(), msg.Content)
		if msg.Role == model.RoleAssistant {
			printCitations(msg.Citations)
		}
	}
}

func printUsage() {
	fmt.Println(`ragchat - streaming terminal client for a RAG answering service

Usage: ragchat [--version] [--help]

Commands:
  /new              start a new conversation
  /sessions         list conversations
  /select <number>  switch conversations
  /delete <number>  delete a conversation
  /history          show the active conversation
  /quit             exit

Ctrl+C cancels an in-flight answer; what already streamed is kept.`)
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

func loadHistory(line *liner.State) string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	historyFile := filepath.Join(dir, "chat_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return historyFile
}

func saveHistory(line *liner.State, historyFile string) {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
