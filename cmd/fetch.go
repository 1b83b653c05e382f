package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/teralink/internal/config"
	"github.com/xkilldash9x/teralink/internal/download"
	"github.com/xkilldash9x/teralink/internal/observability"
	"github.com/xkilldash9x/teralink/internal/service"
)

var (
	fetchOutputDir string
	fetchQuiet     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <share-url>",
	Short: "Resolve a share link and download the file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		cfg := config.Get()
		if fetchOutputDir != "" {
			cfg.Download.OutputDir = fetchOutputDir
		}

		extractor, err := service.New(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("starting browser: %w", err)
		}
		defer extractor.Close()

		result, err := extractor.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		engine := download.New(cfg.Download, logger)
		path, err := engine.Fetch(cmd.Context(), result, fetchQuiet)
		if err != nil {
			return err
		}

		fmt.Println(path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutputDir, "output", "o", "", "directory to save the file into")
	fetchCmd.Flags().BoolVarP(&fetchQuiet, "quiet", "q", false, "suppress the progress bar")
}
