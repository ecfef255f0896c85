package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/reporter"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the reporter definitions",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		errs := cfg.Validate()
		if len(errs) == 0 {
			// Building the reporters also compiles templates and expressions.
			client, err := bitbucket.NewClient(cfg.Bitbucket.Options())
			if err == nil {
				_, err = reporter.BuildAll(cfg.Reporters, client, cfg.Bitbucket.Verbose, newLogger(cfg))
			}
			if err != nil {
				errs = append(errs, err)
			}
		}

		if len(errs) > 0 {
			for _, e := range errs {
				errorColor.Printf("  ✗ %v\n", e)
			}
			return fmt.Errorf("%d configuration problem(s) found", len(errs))
		}

		successColor.Printf("✓ configuration is valid\n")
		for _, r := range cfg.Reporters {
			fmt.Printf("  %s ", r.Name)
			dimColor.Printf("(%s, events: %v)\n", r.Type, r.Events)
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(validateCmd)
}
