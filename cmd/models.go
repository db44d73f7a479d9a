package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gemini-pr-reviewer-go/internal/adapters"
	"gemini-pr-reviewer-go/internal/config"
)

// modelsCmd は generateContent をサポートする Gemini モデルの一覧を標準出力に出力します。
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "generateContent に対応したGeminiモデルの一覧を表示します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		gemini, err := config.LoadGemini(config.DefaultEnvFile, cmd.Flags())
		if err != nil {
			return err
		}

		geminiService, err := adapters.NewGeminiAdapter(cmd.Context(), adapters.GeminiOptions{
			APIKey:  gemini.APIKey,
			Model:   gemini.Model,
			BaseURL: gemini.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("Gemini Service の構築に失敗しました: %w", err)
		}

		names, err := geminiService.ListGenerationModels(cmd.Context())
		if err != nil {
			return err
		}

		// 一覧はパイプで扱えるよう標準出力に出す
		out := cmd.OutOrStdout()
		for _, name := range names {
			marker := " "
			if name == gemini.Model {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, name)
		}
		return nil
	},
}
