// Package main 运维命令：建表、导入 SERP 文档、签发访问令牌、查询用量
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"seo-writer-api/internal/config"
	"seo-writer-api/internal/wire"
	"seo-writer-api/pkg/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "bootstrap",
	Short:         "Operational commands for seo-writer-api",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
		return nil
	},
}

// withDataLayer 初始化 PostgreSQL 数据层并在执行结束后释放
func withDataLayer(ctx context.Context, fn func(data *wire.PostgresOnlyDataLayer) error) error {
	data, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize data layer: %w", err)
	}
	defer cleanup()
	return fn(data)
}

func main() {
	rootCmd.AddCommand(migrateCmd, seedCmd, tokenCmd, usageCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
