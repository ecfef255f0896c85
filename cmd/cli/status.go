package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/db"
	"github.com/sevigo/build-herald/internal/storage"
)

var (
	outputJSON  bool
	statusLimit int
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	successfulStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	inProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	cellStyle       = lipgloss.NewStyle().PaddingRight(3)
)

var statusCmd = &cobra.Command{
	Use:   "status [build-id]",
	Short: "Shows the build states recorded in the journal",
	Long: `List the states reporters last pushed to Bitbucket. With a build id only that
build is shown. Requires DATABASE_URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database == nil || cfg.Database.URL == "" {
			return fmt.Errorf("the journal is disabled: DATABASE_URL is not set")
		}

		conn, cleanup, err := db.NewDatabase(cfg.Database, newLogger(cfg))
		if err != nil {
			return err
		}
		defer cleanup()
		store := storage.NewStore(conn.DB)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		var states []core.BuildState
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid build id %q", args[0])
			}
			states, err = store.GetBuildStates(ctx, id)
			if err != nil {
				return err
			}
		} else {
			states, err = store.ListRecentBuildStates(ctx, statusLimit)
			if err != nil {
				return err
			}
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(states)
		}
		if len(states) == 0 {
			fmt.Println("No build states recorded.")
			return nil
		}
		fmt.Print(renderStates(states))
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output states as JSON")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "Number of recent states to list")
	rootCmd.AddCommand(statusCmd)
}

func renderStates(states []core.BuildState) string {
	headers := []string{"BUILD", "BUILDER", "REPORTER", "STATE", "REVISION", "UPDATED"}
	rows := make([][]string, 0, len(states))
	for _, s := range states {
		revision := s.Revision
		if len(revision) > 7 {
			revision = revision[:7]
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.BuildID, 10),
			fmt.Sprintf("%s #%d", s.BuilderName, s.BuildNumber),
			s.Reporter,
			s.RemoteState,
			revision,
			s.UpdatedAt.Format(time.RFC822),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(headerStyle.Inherit(cellStyle).Width(widths[i] + 3).Render(h))
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			style := cellStyle
			if i == 3 {
				style = stateStyle(cell).Inherit(cellStyle)
			}
			b.WriteString(style.Width(widths[i] + 3).Render(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func stateStyle(state string) lipgloss.Style {
	switch state {
	case "SUCCESSFUL":
		return successfulStyle
	case "FAILED":
		return failedStyle
	default:
		return inProgressStyle
	}
}
