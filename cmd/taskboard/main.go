package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/directory"
	"github.com/nhle/taskboard/internal/feed"
	"github.com/nhle/taskboard/internal/gateway"
	"github.com/nhle/taskboard/internal/gateway/rest"
	sqlitegw "github.com/nhle/taskboard/internal/gateway/sqlite"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/realtime"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	userID := flag.String("user", "", "principal id to act as (overrides config)")
	storeKey := flag.Bool("store-key", false, "read an API key from stdin and store it in the system keyring")
	flag.Parse()

	if *storeKey {
		if err := storeAPIKey(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "taskboard: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath, *userID); err != nil {
		fmt.Fprintf(os.Stderr, "taskboard: %v\n", err)
		os.Exit(1)
	}
}

// storeAPIKey reads a key from stdin and saves it under the configured
// keyring entry.
func storeAPIKey(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stderr, "API key: ")
	var apiKey string
	if _, err := fmt.Fscanln(os.Stdin, &apiKey); err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	if err := credential.Set(cfg.Remote.APIKeyName, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "stored keyring entry %q\n", cfg.Remote.APIKeyName)
	return nil
}

func run(configPath, userOverride string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	principal := cfg.Remote.UserID
	if userOverride != "" {
		principal = userOverride
	}
	if principal == "" {
		return fmt.Errorf("no principal configured: set remote.user_id in %s or pass -user", configPath)
	}

	gw, source, cleanup, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	b := board.New(gw)
	f := feed.New(gw, source, principal)
	d := directory.New(gw)
	defer b.Close()
	defer f.Close()

	program := tea.NewProgram(
		app.New(b, f, d, principal),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// openGateway builds the configured store gateway and the push-event
// source. In offline mode both sides are local: the SQLite store
// publishes notification inserts straight onto the broker. In remote
// mode the broker is the attachment point for an externally managed
// realtime transport; reconnection is that transport's concern, the
// feed's merge stays duplicate-safe either way.
func openGateway(cfg *model.AppConfig) (gateway.Gateway, realtime.Subscriber, func(), error) {
	broker := realtime.NewBroker()

	if cfg.Offline {
		gw, err := sqlitegw.New(cfg.DBPath, broker)
		if err != nil {
			return nil, nil, nil, err
		}

		// Make sure the acting principal is assignable in a fresh db.
		if cfg.Remote.UserID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = gw.UpsertUser(ctx, model.User{
				ID:    cfg.Remote.UserID,
				Email: cfg.Remote.UserID,
			})
			cancel()
		}

		return gw, broker, func() { gw.Close() }, nil
	}

	if cfg.Remote.URL == "" {
		return nil, nil, nil, fmt.Errorf("remote.url is not configured; set it or enable offline mode")
	}

	apiKey := os.Getenv("TASKBOARD_API_KEY")
	if apiKey == "" {
		apiKey, _ = credential.Get(cfg.Remote.APIKeyName)
	}
	if apiKey == "" {
		return nil, nil, nil, fmt.Errorf(
			"no API key: set TASKBOARD_API_KEY or store the %q entry in the system keyring (taskboard -store-key)",
			cfg.Remote.APIKeyName,
		)
	}

	timeout := time.Duration(cfg.Remote.TimeoutSec) * time.Second
	gw := rest.New(cfg.Remote.URL, apiKey, timeout)
	return gw, broker, func() {}, nil
}
