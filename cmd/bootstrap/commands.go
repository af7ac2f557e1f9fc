package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"seo-writer-api/internal/application/pipeline"
	"seo-writer-api/internal/wire"
	apperrors "seo-writer-api/pkg/errors"
	"seo-writer-api/pkg/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withDataLayer(ctx, func(data *wire.PostgresOnlyDataLayer) error {
			if err := data.PgClient.Migrate(ctx); err != nil {
				return err
			}
			fmt.Println("Migration completed.")
			return nil
		})
	},
}

var seedFile string

// seedFileContent 导入文件格式：documents 下每项与 POST /v1/serp-documents 请求体一致
type seedFileContent struct {
	Documents []map[string]any `yaml:"documents"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import SERP documents from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}
		requests, err := parseSeed(raw)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		return withDataLayer(ctx, func(data *wire.PostgresOnlyDataLayer) error {
			documents := pipeline.NewDocumentService(data.SerpDocRepo, nil)
			err := data.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
				for _, req := range requests {
					doc, err := documents.Create(txCtx, req)
					if err != nil {
						return fmt.Errorf("failed to import %q: %w", req.MainKeyword, err)
					}
					fmt.Printf("Imported %s (%s)\n", doc.ID, doc.MainKeyword)
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Printf("Seed completed: %d documents.\n", len(requests))
			return nil
		})
	},
}

// parseSeed 解析并校验全部文档，任一条无效时整体拒绝
func parseSeed(raw []byte) ([]*pipeline.SerpDocumentRequest, error) {
	var content seedFileContent
	if err := yaml.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	if len(content.Documents) == 0 {
		return nil, fmt.Errorf("seed file has no documents")
	}

	out := make([]*pipeline.SerpDocumentRequest, 0, len(content.Documents))
	for i, item := range content.Documents {
		body, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		var req pipeline.SerpDocumentRequest
		if err := pipeline.Decode(body, &req); err != nil {
			return nil, fmt.Errorf("document %d: %s", i, describe(err))
		}
		out = append(out, &req)
	}
	return out, nil
}

// describe 展开字段错误，便于定位导入文件中的问题
func describe(err error) string {
	appErr := apperrors.AsAppError(err)
	if len(appErr.FieldErrors) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(appErr.FieldErrors))
	for _, fe := range appErr.FieldErrors {
		parts = append(parts, fe.Path+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

var (
	tokenSubject string
	tokenScopes  []string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := strings.TrimSpace(tokenSubject)
		if subject == "" {
			return fmt.Errorf("--subject is required")
		}
		if cfg.Security.JWT.Secret == "" {
			return fmt.Errorf("security.jwt.secret is not configured")
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Security.JWT.Expiration
		}

		token, err := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer).
			GenerateToken(subject, tokenScopes, ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

var usageSince time.Duration

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize LLM token usage per stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if usageSince <= 0 {
			return fmt.Errorf("--since must be positive")
		}
		ctx := cmd.Context()
		end := time.Now()
		start := end.Add(-usageSince)

		return withDataLayer(ctx, func(data *wire.PostgresOnlyDataLayer) error {
			rows, err := data.UsageRecorder.Summary(ctx, start, end)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tCALLS\tPROMPT\tCOMPLETION")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", row.Workflow, row.Calls, row.TokensPrompt, row.TokensCompletion)
			}
			return w.Flush()
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to the seed YAML file")
	_ = seedCmd.MarkFlagRequired("file")

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (client name)")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", nil, "Granted scopes, empty means all")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime, defaults to security.jwt.expiration")

	usageCmd.Flags().DurationVar(&usageSince, "since", 24*time.Hour, "Window size ending now")
}
