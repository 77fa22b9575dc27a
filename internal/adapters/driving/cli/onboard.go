package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulochat/bulochat/internal/connectors/naverblog"
	"github.com/bulochat/bulochat/internal/core/domain"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Set up the business profile interactively",
	Long: `Captures the business profile: name, blog address, assistant
personality, frequently asked questions and current marketing notes.
Running onboard again replaces the existing profile; ingested documents
and cached answers are kept.`,
	RunE: runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(cmd *cobra.Command, _ []string) error {
	if contentStore == nil {
		return errors.New("store not configured")
	}

	reader := bufio.NewScanner(cmd.InOrStdin())
	prompt := func(label string) (string, error) {
		cmd.Printf("%s: ", label)
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				return "", err
			}
			return "", errors.New("input closed")
		}
		return strings.TrimSpace(reader.Text()), nil
	}

	name, err := prompt("Business name")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("business name is required")
	}

	sourceURL, err := prompt("Naver blog URL")
	if err != nil {
		return err
	}
	if _, err := naverblog.ExtractBlogID(sourceURL); err != nil {
		return fmt.Errorf("invalid blog URL: %w", err)
	}

	personality, err := prompt("Assistant personality (e.g. warm and concise)")
	if err != nil {
		return err
	}

	cmd.Println("Add FAQs. Leave the question empty to finish.")
	var faqs []domain.FAQ
	for {
		question, err := prompt(fmt.Sprintf("FAQ %d question", len(faqs)+1))
		if err != nil {
			return err
		}
		if question == "" {
			break
		}
		answer, err := prompt("Answer")
		if err != nil {
			return err
		}
		faqs = append(faqs, domain.FAQ{Question: question, Answer: answer})
	}

	marketing, err := prompt("Current promotions or marketing notes (optional)")
	if err != nil {
		return err
	}

	profile := &domain.BusinessProfile{
		Name:          name,
		SourceURL:     sourceURL,
		Personality:   personality,
		FAQs:          faqs,
		MarketingInfo: marketing,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := contentStore.SaveProfile(cmd.Context(), profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	cmd.Printf("Profile saved for %s. Run 'bulochat crawl' to build the knowledge base.\n", name)
	return nil
}
