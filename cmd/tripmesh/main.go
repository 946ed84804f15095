// Command tripmesh runs the travel assistant either as an interactive
// terminal chat or as a WebSocket server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/tripmesh/tripmesh"
	"github.com/tripmesh/tripmesh/config"
	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/logging"
	"github.com/tripmesh/tripmesh/model"
	anthropicmodel "github.com/tripmesh/tripmesh/model/anthropic"
	openaimodel "github.com/tripmesh/tripmesh/model/openai"
	"github.com/tripmesh/tripmesh/search"
	"github.com/tripmesh/tripmesh/server"
	"github.com/tripmesh/tripmesh/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "tripmesh",
		Short:         "Travel-planning chat assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default tripmesh.yaml)")
	cmd.AddCommand(newChatCmd(&cfgFile), newServeCmd(&cfgFile))
	return cmd
}

func newChatCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat on stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			mesh, cleanup, err := buildMesh(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runChatLoop(ctx, mesh, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newServeCmd(cfgFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the WebSocket chat endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			mesh, cleanup, err := buildMesh(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := newLogger(cfg)
			srv := server.New(mesh, func(o *server.Options) {
				o.Logger = logger
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.ListenAddr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func newLogger(cfg config.Config) *logging.TripLogger {
	return logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: "text",
		Output: os.Stderr,
	})
}

// buildMesh assembles the façade from the configuration. The returned
// cleanup closes the durable session database, if any.
func buildMesh(cfg config.Config) (*tripmesh.TripMesh, func(), error) {
	logger := newLogger(cfg)

	var llm model.Model
	switch cfg.Provider {
	case "anthropic":
		llm = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(cfg.ModelName)
			o.APIKey = cfg.AnthropicAPIKey
		})
	default:
		llm = openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.ModelName
			o.APIKey = cfg.OpenAIAPIKey
		})
	}

	// The adapter degrades to empty results when the key is absent, so the
	// assistant still answers without search context.
	searchTool := search.NewAdapter(search.NewTavilyClient(cfg.TavilyAPIKey), logger)

	cleanup := func() {}
	var store core.StateStore
	if cfg.StorePath != "" {
		backend, err := session.OpenBadger(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = backend.Close() }
		store = session.NewStore(func(o *session.StoreOptions) {
			o.Capacity = cfg.CacheCapacity
			o.Backend = backend
			o.Logger = logger
		})
	} else {
		store = session.NewStore(func(o *session.StoreOptions) {
			o.Capacity = cfg.CacheCapacity
			o.Logger = logger
		})
	}

	mesh := tripmesh.New(llm, func(o *tripmesh.Options) {
		o.Store = store
		o.Search = searchTool
		o.ThrottleEvery = cfg.ThrottleEvery
		o.MinFragmentLen = cfg.MinFragmentLen
		o.Logger = logger
	})
	mesh.RegisterDefaultAgents()
	return mesh, cleanup, nil
}

func runChatLoop(ctx context.Context, mesh *tripmesh.TripMesh, in io.Reader, out io.Writer) error {
	sessionID := core.NewID()
	fmt.Fprintf(out, "session %s, พิมพ์คำถามของคุณ (Ctrl+D เพื่อออก)\n", sessionID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		records, err := mesh.Chat(ctx, sessionID, text)
		if err != nil {
			return err
		}
		for m := range records {
			if m.Partial {
				fmt.Fprintf(out, "... %s\n", m.Message)
				continue
			}
			fmt.Fprintf(out, "%s\n", m.Message)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
