package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gfauth/internal/auth"
	"gfauth/internal/batch"
	"gfauth/internal/transport"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		workers  int
		accounts string
		proxies  string
	)

	cmd := &cobra.Command{
		Use:               "batch",
		Short:             "Log in every account of an accounts file concurrently",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Batch
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if accounts != "" {
				cfg.AccountsFile = accounts
			}
			if proxies != "" {
				cfg.ProxiesFile = proxies
			}

			list, err := batch.LoadAccounts(cfg.AccountsFile)
			if err != nil {
				return err
			}
			a.logger.Infof("Loaded %d accounts", len(list))

			var pool *transport.ProxyPool
			if cfg.ProxiesFile != "" {
				var skipped int
				pool, skipped, err = transport.LoadProxyPool(cfg.ProxiesFile)
				if err != nil {
					return err
				}
				a.logger.Infof("Loaded %d proxies (%d skipped)", pool.Count(), skipped)
			}

			// Identities are written once after the run, not per login.
			runner := newLoginRunner(a, false)
			scheduler := batch.NewScheduler(batch.Config{
				Workers:    cfg.Workers,
				Stagger:    time.Duration(cfg.StaggerMS) * time.Millisecond,
				MaxRetries: cfg.MaxRetries,
			}, runner.login, pool, a.component("batch"))

			a.logger.Infof("Starting %d concurrent workers...", cfg.Workers)
			var succeeded, failed int
			for i, result := range scheduler.Run(cmd.Context(), list) {
				if result.Err != nil {
					failed++
					entry := a.logger.WithField("email", result.Account.Email)
					if auth.IsInvalidCredentials(result.Err) {
						entry.Warnf("[%d/%d] rejected credentials: %v", i+1, len(list), result.Err)
					} else {
						entry.Errorf("[%d/%d] FAILED: %v", i+1, len(list), result.Err)
					}
					continue
				}
				succeeded++
				a.logger.Infof("[%d/%d] SUCCESS: %s", i+1, len(list), result.Account.Email)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", result.Account.Email, result.Token)
			}

			if err := runner.store.SaveAll(); err != nil {
				a.logger.Errorf("Failed to save identities: %v", err)
			}

			a.logger.Infof("=== Complete: %d successful logins, %d failed ===", succeeded, failed)
			if succeeded < len(list) {
				return fmt.Errorf("%d of %d logins did not succeed", len(list)-succeeded, len(list))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&workers, "workers", "w", 0, "number of concurrent workers (default from config)")
	flags.StringVar(&accounts, "accounts", "", "accounts file (default from config)")
	flags.StringVar(&proxies, "proxies", "", "proxies file, one per line (default from config)")

	return cmd
}
