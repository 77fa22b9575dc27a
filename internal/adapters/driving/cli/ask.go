package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	question := strings.Join(args, " ")
	result, err := chatService.Answer(cmd.Context(), question)
	if err != nil {
		return err
	}

	cmd.Println(result.Text)
	if result.Cached {
		cmd.Println("(served from answer cache)")
	}
	return nil
}
