package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/project"
)

var (
	flagInitOwner  string
	flagInitRepo   string
	flagInitLegacy string
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create an orchestrator project",
	Long: `Create .orch/ in the given directory (default: current directory) with a
documented config.toml and an empty tracking database.

Example:
  orch init --owner octo --repo widgets
  orch init ~/src/widgets --owner octo --repo widgets --import-legacy config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&flagInitOwner, "owner", "", "GitHub repository owner")
	initCmd.Flags().StringVar(&flagInitRepo, "repo", "", "GitHub repository name")
	initCmd.Flags().StringVar(&flagInitLegacy, "import-legacy", "", "import queue and settings from a YAML config")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	proj, err := project.Create(GetContext(), dir, flagInitOwner, flagInitRepo)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if flagInitLegacy != "" {
		res, err := project.ImportLegacy(flagInitLegacy, proj.Config)
		if err != nil {
			return err
		}
		if err := proj.Save(); err != nil {
			return err
		}
		fmt.Printf("Imported %d queue item(s) from %s\n", len(res.Added), flagInitLegacy)
	}

	fmt.Printf("Project '%s' created\n", proj.Config.Project.Name)
	fmt.Printf("  Directory: %s\n", proj.Root)
	fmt.Printf("  Config:    %s\n", proj.ConfigPath())
	if slug := proj.Config.GitHub.RepoSlug(); slug != "" {
		fmt.Printf("  Repo:      %s\n", slug)
	} else {
		fmt.Println("  Set github.owner and github.repo in config.toml before starting the daemon.")
	}
	return nil
}
