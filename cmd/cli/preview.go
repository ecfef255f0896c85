package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/formatter"
)

var (
	previewTopic    string
	previewStyle    string
	previewTemplate string
	previewRaw      bool
)

var previewCmd = &cobra.Command{
	Use:   "preview [event.json]",
	Short: "Render the pull request comment a build event would produce",
	Long: `Render the message the pr-comment reporter would post for a record,
without contacting Bitbucket.

Examples:
  herald preview build.json
  herald preview --style plain --topic buildsets.complete buildset.json
  herald preview --template comment.tmpl build.json`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	previewCmd.Flags().StringVar(&previewTopic, "topic", core.TopicBuildFinished, "Topic the record belongs to")
	previewCmd.Flags().StringVar(&previewStyle, "style", string(formatter.DefaultStyle), "Built-in template style")
	previewCmd.Flags().StringVar(&previewTemplate, "template", "", "Custom template file for the record kind")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "Print the message without rendering markdown")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	event, err := readEvent(args[0], previewTopic)
	if err != nil {
		return err
	}

	opts := []formatter.Option{formatter.WithStyle(previewStyle)}
	if previewTemplate != "" {
		text, err := os.ReadFile(previewTemplate)
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}
		if event.Buildset != nil {
			opts = append(opts, formatter.WithBuildsetTemplate(string(text)))
		} else {
			opts = append(opts, formatter.WithBuildTemplate(string(text)))
		}
	}
	f, err := formatter.New(opts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var msg *core.Message
	if event.Buildset != nil {
		msg, err = f.FormatBuildset(ctx, event.Buildset)
	} else {
		msg, err = f.FormatBuild(ctx, event.Build)
	}
	if err != nil {
		return err
	}

	if msg.Subject != "" {
		titleColor.Println(msg.Subject)
	}
	if previewRaw || msg.Type != "markdown" {
		fmt.Println(msg.Body)
		return nil
	}
	out, err := glamour.Render(msg.Body, "dark")
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	fmt.Print(out)
	return nil
}
