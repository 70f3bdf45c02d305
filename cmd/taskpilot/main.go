package main

import (
	"fmt"
	"log"
	"os"

	"github.com/taskpilot/taskpilot/api"
	"github.com/taskpilot/taskpilot/api/handlers"
	"github.com/taskpilot/taskpilot/internal/ai"
	"github.com/taskpilot/taskpilot/internal/chat"
	"github.com/taskpilot/taskpilot/internal/mcp"
	"github.com/taskpilot/taskpilot/internal/store"
	"github.com/taskpilot/taskpilot/pkg/config"
	"github.com/taskpilot/taskpilot/pkg/repository"
	"github.com/urfave/cli/v2"
)

// Version will be set during build with ldflags
var Version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "taskpilot",
		Usage:   "Todo API with a conversational task assistant",
		Version: Version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "Run database migrations and exit",
				Action: runMigrate,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server over stdio",
				Action: runMCP,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := repository.NewDatabase(cfg)
	if err != nil {
		return err
	}

	completions, err := ai.NewClient(cfg.AI)
	if err != nil {
		return err
	}

	tasks := store.NewTaskStore(db)
	conversations := store.NewConversationStore(db)
	users := store.NewUserStore(db)

	dispatcher := ai.NewDispatcher(tasks)
	chatService := chat.NewService(conversations, completions, dispatcher)

	router := api.NewRouter(api.Deps{
		Users: users,
		Auth:  &handlers.AuthHandler{Users: users},
		Tasks: &handlers.TaskHandler{Tasks: tasks},
		Chat:  &handlers.ChatHandler{Service: chatService, Conversations: conversations},
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("[server] listening on %s", addr)
	return router.Run(addr)
}

func runMigrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := repository.NewDatabase(cfg)
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	log.Println("[migrate] database schema is up to date")
	return nil
}

func runMCP(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := repository.NewDatabase(cfg)
	if err != nil {
		return err
	}

	return mcp.ServeStdio(store.NewTaskStore(db))
}
