package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bulochat/bulochat/internal/adapters/driving/tui"
	"github.com/bulochat/bulochat/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens a terminal chat session against the ingested knowledge base.

Controls:
  Enter - Send question
  Esc   - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	ctx := cmd.Context()

	// The header names the business when a profile exists; chat itself
	// handles the unconfigured case with a fixed reply.
	title := ""
	if contentStore != nil {
		if profile, err := contentStore.GetProfile(ctx); err == nil {
			title = profile.Name
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("load profile: %w", err)
		}
	}

	model := tui.New(ctx, chatService, title)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session: %w", err)
	}
	return nil
}
