// Command ppctl is a dev CLI for postpilot maintenance and debugging tasks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/postpilot/postpilot/internal/config"
	"github.com/postpilot/postpilot/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	godotenv.Load()
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))

	switch os.Args[1] {
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("Usage: ppctl run <user-id>")
			os.Exit(1)
		}
		runPipeline(logger, os.Args[2])
	case "state":
		if len(os.Args) < 3 {
			fmt.Println("Usage: ppctl state <user-id>")
			os.Exit(1)
		}
		runState(logger, os.Args[2])
	case "posts":
		if len(os.Args) < 3 {
			fmt.Println("Usage: ppctl posts <user-id>")
			os.Exit(1)
		}
		runPosts(logger, os.Args[2])
	case "config-path":
		path, err := config.ConfigPath()
		if err != nil {
			logger.Error("resolve config path", "error", err)
			os.Exit(1)
		}
		fmt.Println(path)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: ppctl <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run <user-id>     Trigger a suggestion run on the running service")
	fmt.Println("  state <user-id>   Print the user's analysis state")
	fmt.Println("  posts <user-id>   Print the user's pending suggestions")
	fmt.Println("  config-path       Print the config file location")
}

// runPipeline triggers a run through the running service rather than wiring
// up fetchers and model clients locally.
func runPipeline(logger *slog.Logger, userID string) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	addr := cfg.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	body, _ := json.Marshal(map[string]string{"user_id": userID})
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Post("http://"+addr+"/api/v1/suggestions/run", "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Error("call service (is postpilotd running?)", "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("read response", "error", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "service returned %d: %s\n", resp.StatusCode, out)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func openStore(logger *slog.Logger) *store.Store {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		logger.Error("resolve database path", "error", err)
		os.Exit(1)
	}
	st, err := store.New(dbPath)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	return st
}

func runState(logger *slog.Logger, userID string) {
	st := openStore(logger)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	state, err := st.GetAnalysisState(ctx, userID)
	if err != nil {
		logger.Error("get analysis state", "error", err)
		os.Exit(1)
	}
	if state == nil {
		fmt.Printf("no analysis state for user %s (never analyzed)\n", userID)
		return
	}
	printJSON(state)
}

func runPosts(logger *slog.Logger, userID string) {
	st := openStore(logger)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	posts, err := st.GetSuggestedPosts(ctx, userID, store.StatusSuggested, 50)
	if err != nil {
		logger.Error("get suggested posts", "error", err)
		os.Exit(1)
	}
	if len(posts) == 0 {
		fmt.Printf("no pending suggestions for user %s\n", userID)
		return
	}
	printJSON(posts)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
