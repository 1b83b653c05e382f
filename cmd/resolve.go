package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/internal/config"
	"github.com/xkilldash9x/teralink/internal/observability"
	"github.com/xkilldash9x/teralink/internal/service"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <share-url>",
	Short: "Extract the direct download URL behind a share link.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		extractor, err := service.New(cmd.Context(), config.Get(), logger)
		if err != nil {
			return fmt.Errorf("starting browser: %w", err)
		}
		defer extractor.Close()

		result, err := extractor.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if resolveJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		logger.Info("Direct link resolved",
			zap.String("layer", string(result.Layer)),
			zap.String("filename", result.Filename),
		)
		fmt.Println(result.URL)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print the full result as JSON")
}
