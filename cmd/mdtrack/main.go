package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	mdtrack "github.com/mdtracker/mdtrack/pkg"
	pkgdb "github.com/mdtracker/mdtrack/pkg/db"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:     "mdtrack",
	Short:   "A match tracker for card games: record games, tag them, and study your win rates.",
	Long:    ``,
	Version: fmt.Sprintf("v%s", mdtrack.Version),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for mdtrack.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(mdtrack completion bash)

  Bash (persist):
    $ mdtrack completion bash > /etc/bash_completion.d/mdtrack

  Zsh:
    $ mdtrack completion zsh > "${fpath[1]}/_mdtrack"

  Fish:
    $ mdtrack completion fish | source
    $ mdtrack completion fish > ~/.config/fish/completions/mdtrack.fish

  PowerShell:
    PS> mdtrack completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mdtrack",
	Long:  `All software has versions. This is mdtrack's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(mdtrack.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the mdtrack database",
	Long:  `Provides commands for managing the mdtrack SQLite database, including schema upgrades.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the mdtrack database schema to the latest version for the trackerdb component",
	Long: `Connects to the SQLite database at the specified path (via --dbpath) and applies any necessary
schema migrations to bring the trackerdb component up to the current application schema version.
If the database does not exist or is uninitialized for this component, it will be created
and initialized with the latest schema for the trackerdb component.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		walEnabled, _ := cmd.Flags().GetBool("wal")
		syncMode, _ := cmd.Flags().GetString("sync")

		resolvedPath, err := resolveDBPath()
		if err != nil {
			return err
		}

		fmt.Printf("Attempting to upgrade trackerdb component in database at: %s (WAL: %t, Sync: %s)\n", resolvedPath, walEnabled, syncMode)

		dbConn, err := pkgdb.OpenDBConnection(resolvedPath, walEnabled, syncMode)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		return pkgdb.UpgradeDB(dbConn, resolvedPath, pkgdb.TargetSchemaVersion)
	},
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "Path to the mdtrack SQLite database file (defaults to a per-user data directory)")

	dbUpgradeCmd.Flags().Bool("wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode.")
	dbUpgradeCmd.Flags().String("sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA).")
	dbCmd.AddCommand(dbUpgradeCmd)

	initProjectCmds()
	initDeckCmds()
	initTagCmds()
	initMatchCmds()
	initStatsCmds()
	initBackupCmds()

	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, projectsCmd, decksCmd, tagsCmd, matchesCmd, statsCmd, exportCmd, importCmd, serveCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
