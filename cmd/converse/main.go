package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lithammer/shortuuid/v4"

	"github.com/parrotflow/converse/conversation"
	"github.com/parrotflow/converse/embedding"
	"github.com/parrotflow/converse/engine"
	"github.com/parrotflow/converse/internal/profile"
	"github.com/parrotflow/converse/llm"
	"github.com/parrotflow/converse/memory"
	"github.com/parrotflow/converse/nlu"
	"github.com/parrotflow/converse/store"
	"github.com/parrotflow/converse/store/db"
)

const version = "0.1.0"

var (
	instanceProfile *profile.Profile

	rootCmd = &cobra.Command{
		Use:   "converse",
		Short: "Dialogue management and conversation memory service",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := run(ctx); err != nil {
				slog.Error("failed to run", "error", err)
				os.Exit(1)
			}
		},
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "demo", `mode of the service, can be "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	if err := viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("converse")
	viper.AutomaticEnv()

	instanceProfile = &profile.Profile{
		Mode:    viper.GetString("mode"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	instanceProfile.FromEnv()
}

func run(ctx context.Context) error {
	if err := instanceProfile.Validate(); err != nil {
		return err
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return err
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	defer storeInstance.Close()

	if err := storeInstance.Migrate(ctx); err != nil {
		return err
	}

	var llmService llm.Service
	if instanceProfile.IsAIEnabled() {
		llmService, err = llm.NewOpenAIService(&llm.Config{
			BaseURL:   instanceProfile.AIBaseURL,
			APIKey:    instanceProfile.AIAPIKey,
			ChatModel: instanceProfile.AIChatModel,
		})
		if err != nil {
			return err
		}
	} else {
		slog.Warn("no API key configured, all decisions degrade to rule-based fallbacks")
		llmService = &llm.MockService{Err: fmt.Errorf("llm not configured")}
	}

	var embedder embedding.Embedder
	if instanceProfile.IsAIEnabled() && instanceProfile.AIEmbeddingEnabled {
		embedder, err = embedding.NewOpenAIEmbedder(embedding.Config{
			BaseURL: instanceProfile.AIBaseURL,
			APIKey:  instanceProfile.AIAPIKey,
			Model:   instanceProfile.AIEmbeddingModel,
		})
		if err != nil {
			return err
		}
	}

	memoryService := memory.NewService(storeInstance, memory.NewSynthesizer(embedder))
	manager := conversation.NewManager(0, 0)
	dialogueEngine := engine.New(manager, llmService, memoryService)

	cleanupJob := conversation.NewCleanupJob(manager, conversation.DefaultCleanupConfig())
	cleanupJob.AddSweep("memory", memoryService.Evict)
	if err := cleanupJob.Start(ctx); err != nil {
		return err
	}
	defer cleanupJob.Stop()

	slog.Info("converse started",
		"version", instanceProfile.Version,
		"mode", instanceProfile.Mode,
		"driver", instanceProfile.Driver)

	go repl(ctx, dialogueEngine)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	slog.Info("converse shutting down")
	return nil
}

// repl drives a demo conversation over stdin. Each line is one user turn;
// "/end" persists the conversation and starts a fresh one.
func repl(ctx context.Context, e *engine.Engine) {
	conversationID := shortuuid.New()
	fmt.Printf("conversation %s — type a message, /end to finish\n", conversationID)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/end" {
			if saved, err := e.EndConversation(ctx, conversationID); err != nil {
				slog.Error("failed to end conversation", "error", err)
			} else if saved {
				fmt.Println("conversation saved")
			}
			conversationID = shortuuid.New()
			fmt.Printf("conversation %s\n", conversationID)
			continue
		}

		result, err := e.ProcessTurn(ctx, engine.TurnInput{
			ConversationID: conversationID,
			UserID:         "demo",
			UserMessage:    line,
			NLU:            nlu.Result{},
		})
		if err != nil {
			slog.Error("failed to process turn", "error", err)
			continue
		}

		reply := e.RenderResponse(ctx, conversationID, line, result.Decision)
		fmt.Printf("[%s] %s\n", result.Context.CurrentState, reply)
		if result.Escalation.ShouldEscalate {
			fmt.Printf("(escalation suggested: %s, urgency %s)\n",
				result.Escalation.Reason, result.Escalation.Urgency)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}
