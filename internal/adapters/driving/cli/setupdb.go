package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var setupDBForce bool

var setupDBCmd = &cobra.Command{
	Use:   "setup-db",
	Short: "Reset the local database",
	Long: `Drops every table and recreates the schema. All ingested
documents, cached answers and the business profile are lost.`,
	RunE: runSetupDB,
}

func init() {
	setupDBCmd.Flags().BoolVar(&setupDBForce, "force", false, "skip the confirmation prompt")
	rootCmd.AddCommand(setupDBCmd)
}

func runSetupDB(cmd *cobra.Command, _ []string) error {
	if schemaResetter == nil {
		return errors.New("database not configured")
	}

	if !setupDBForce {
		cmd.Print("This deletes all ingested data. Type 'yes' to continue: ")
		reader := bufio.NewScanner(cmd.InOrStdin())
		if !reader.Scan() || strings.ToLower(strings.TrimSpace(reader.Text())) != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := schemaResetter.Reset(); err != nil {
		return err
	}
	cmd.Println("Database reset. Run 'bulochat onboard' to start over.")
	return nil
}
