package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/parley/pkg/agents"
	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/config"
	"github.com/go-go-golems/parley/pkg/persistence/statestore"
	"github.com/go-go-golems/parley/pkg/session"
	"github.com/go-go-golems/parley/pkg/transport"
	"github.com/go-go-golems/parley/pkg/ui"
)

var (
	flagConfig   string
	flagServer   string
	flagWS       string
	flagStateDB  string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "parley is a terminal chat client for multi-agent backends",
	Long: `parley connects to an agent chat server, streams assistant replies over a
persistent websocket, and keeps named per-agent sessions with local history.`,
	RunE: runChat,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents the server offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := agents.NewClient(cfg.ServerURL)
		list, err := client.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, group := range agents.GroupByCategory(list) {
			fmt.Printf("%s\n", group.Category)
			for _, agent := range group.Agents {
				fmt.Printf("  %-24s %s\n", agent.ID, agent.Description)
			}
		}
		return nil
	},
}

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key <key>",
	Short: "Check an API key against the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := agents.NewClient(cfg.ServerURL)
		result, err := client.ValidateKey(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if result.Valid {
			fmt.Println("key is valid")
			return nil
		}
		if result.Message != "" {
			return errors.Errorf("key rejected: %s", result.Message)
		}
		return errors.New("key rejected")
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server-url", "", "HTTP base URL of the agent server")
	rootCmd.PersistentFlags().StringVar(&flagWS, "ws-url", "", "websocket URL of the chat endpoint")
	rootCmd.PersistentFlags().StringVar(&flagStateDB, "state-db", "", "path of the local state database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(agentsCmd, validateKeyCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal, so without an explicit log file the
		// root command logs nowhere rather than over the screen.
		quietDefault := cmd == rootCmd
		return initLogger(flagLogLevel, flagLogFile, quietDefault)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	cobra.CheckErr(err)
}

func initLogger(level, file string, quietDefault bool) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", level)
	}
	zerolog.SetGlobalLevel(parsed)

	var w io.Writer
	switch {
	case file != "":
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrapf(err, "open log file %s", file)
		}
		w = f
	case quietDefault:
		w = io.Discard
	default:
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	zlog.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagWS != "" {
		cfg.WebSocketURL = flagWS
	}
	if flagStateDB != "" {
		cfg.StatePath = flagStateDB
	}
	return cfg, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snapshot := statestore.Open(cfg.StatePath)
	defer func() { _ = snapshot.Close() }()

	store := session.NewStore()
	assembler := chat.NewAssembler()
	if sessions, err := snapshot.LoadSessions(); err != nil {
		zlog.Warn().Err(err).Msg("loading sessions failed, starting empty")
	} else {
		store.SetAll(sessions)
	}
	if histories, err := snapshot.LoadMessages(); err != nil {
		zlog.Warn().Err(err).Msg("loading message histories failed, starting empty")
	} else {
		assembler.SetHistories(histories)
	}
	darkMode := cfg.DarkMode
	if v, found, err := snapshot.LoadDarkMode(); err == nil && found {
		darkMode = v
	}
	apiKey, err := snapshot.LoadAPIKey()
	if err != nil {
		zlog.Warn().Err(err).Msg("loading api key failed")
	}

	manager := session.NewManager(store, assembler)

	events := make(chan transport.Event, 256)
	states := make(chan transport.State, 16)
	conn, err := transport.NewManager(transport.Config{
		URL: cfg.WebSocketURL,
		OnEvent: func(event transport.Event) {
			events <- event
		},
		OnState: func(state transport.State) {
			select {
			case states <- state:
			default:
			}
		},
	})
	if err != nil {
		return err
	}

	conn.Start(cmd.Context())
	defer conn.Close()

	model := ui.New(ui.Options{
		Config:    cfg,
		Client:    agents.NewClient(cfg.ServerURL),
		Snapshot:  snapshot,
		Sessions:  manager,
		Assembler: assembler,
		Conn:      conn,
		Events:    events,
		States:    states,
		DarkMode:  darkMode,
		APIKey:    apiKey,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g := &errgroup.Group{}
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})
	g.Go(func() error {
		// A signal quits the program cleanly; after a normal quit this is a
		// no-op on an already-stopped program.
		<-ctx.Done()
		program.Quit()
		return nil
	})
	return g.Wait()
}
