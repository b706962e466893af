package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gfauth/internal/fingerprint"
	"gfauth/internal/identity"
)

func newIdentityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "identity",
		Short:             "Manage identity files",
		Args:              cobra.MinimumNArgs(1),
		DisableAutoGenTag: true,
	}

	var (
		output string
		force  bool
		timing fingerprint.TimingRange
	)
	create := &cobra.Command{
		Use:   "new <fingerprint.json>",
		Short: "Create an identity from a captured fingerprint",
		Long: `Create an identity from a captured fingerprint.
The identity gets a random installation id and the given timing range.`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var fp fingerprint.Fingerprint
			if err := json.Unmarshal(data, &fp); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			id := identity.New(fp)
			id.Timing = timing
			if err := id.Validate(); err != nil {
				return err
			}

			if output == "" {
				output = a.cfg.Identity
			}
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", output)
			}
			if err := identity.Save(output, id); err != nil {
				return err
			}
			a.logger.Infof("Wrote identity %s (installation %s)", output, id.InstallationID)
			return nil
		},
	}
	defaults := fingerprint.DefaultTimingRange()
	create.Flags().StringVarP(&output, "output", "o", "", "identity file to write (default from config)")
	create.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing identity")
	create.Flags().Uint32Var(&timing.Min, "timing-min", defaults.Min, "lower bound of the reported delta in ms")
	create.Flags().Uint32Var(&timing.Max, "timing-max", defaults.Max, "upper bound of the reported delta in ms")
	cmd.AddCommand(create)

	return cmd
}
