package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luoxiv/enervision/pkg/internal/ocr"
)

var (
	ocrCmd = &cobra.Command{
		Use:   "ocr",
		Short: "OCR engine related commands",
	}

	ocrListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered ocr engines",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered ocr engines:")
			for _, e := range ocr.GetRegisteredEngines() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(e))
			}
		},
	}
)

// registerOCRCommands 注册 OCR 引擎相关命令.
func registerOCRCommands() {
	rootCmd.AddCommand(ocrCmd)
	ocrCmd.AddCommand(ocrListCmd)
}
