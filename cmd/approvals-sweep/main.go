// approvals-sweep marks expired pending approval items in one pass. Meant
// for cron; the service also sweeps in-process, and read-time expiry is
// authoritative either way.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/approvals"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/cli/common"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/config"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/db"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/events"
)

func main() {
	var cfgFile string
	root := &cobra.Command{
		Use:   "approvals-sweep",
		Short: "Mark expired approval items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			common.SetupLogger(cfg.Log)

			gdb, err := db.Open(cfg.DB.DSN)
			if err != nil {
				return err
			}
			store, err := approvals.NewGormStore(gdb)
			if err != nil {
				return err
			}
			queue := approvals.NewQueue(store, events.NewNoop(), time.Duration(cfg.Approvals.TTLHours)*time.Hour)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			n, err := queue.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("expired %d item(s)\n", n)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
