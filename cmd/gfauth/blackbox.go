package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gfauth/internal/blackbox"
	"gfauth/internal/fingerprint"
	"gfauth/internal/identity"
)

func newBlackboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "blackbox",
		Short:             "Encode, decode or generate blackbox strings",
		Args:              cobra.MinimumNArgs(1),
		DisableAutoGenTag: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:               "decode <tra:...>",
		Short:             "Print the fingerprint inside a blackbox as JSON",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bb, err := blackbox.Decode(args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(bb.Fingerprint, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:               "encode <fingerprint.json>",
		Short:             "Encode a fingerprint file as a blackbox",
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
			wire, err := blackbox.New(fp).Encode()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wire)
			return nil
		},
	})

	var identityPath string
	generate := &cobra.Command{
		Use:               "generate",
		Short:             "Advance an identity and print a fresh blackbox",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := identityPath
			if path == "" {
				path = a.cfg.Identity
			}
			id, err := identity.Load(path)
			if err != nil {
				return err
			}
			manager := identity.NewManager(id)
			wire, err := manager.GenerateBlackbox().Encode()
			if err != nil {
				return err
			}
			if err := identity.Save(path, manager.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wire)
			return nil
		},
	}
	generate.Flags().StringVarP(&identityPath, "identity", "i", "", "identity file (default from config)")
	cmd.AddCommand(generate)

	return cmd
}
