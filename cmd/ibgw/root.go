package main

import (
	"encoding/json"
	"fmt"

	"ibgw/internal/accounts"
	"ibgw/internal/dispatch"
	"ibgw/internal/gateway"
	"ibgw/internal/ops"

	"github.com/spf13/cobra"
	"github.com/yanun0323/logs"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ibgw",
	Short: "Request dispatch for a callback based trading gateway",
	Long: `ibgw attaches to a JSON websocket bridge in front of the trading gateway
and multiplexes its single callback stream into independently addressable
requests. Configuration is read from an optional JSON file and IBGW_*
environment variables.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach to the gateway and log connection notices until shutdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ops.Load(configPath)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		system := a.svc.System(dispatch.Handlers{
			Data: func(p any) {
				if notice, ok := p.(gateway.Error); ok {
					logs.Infof("gateway notice %d: %s", notice.Code, notice.Message)
				}
			},
		})
		defer system.Close()

		if err := a.start(cmd.Context()); err != nil {
			return err
		}
		if err := system.Send(); err != nil {
			return err
		}

		a.wait(cmd.Context())
		printSnapshot(cmd, a)
		return nil
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Stream normalized account updates as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ops.Load(configPath)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.start(cmd.Context()); err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		model := accounts.New(a.svc,
			accounts.WithGroup(cfg.Accounts.Group),
			accounts.WithTags(cfg.Accounts.Tags),
			accounts.WithAccount(cfg.Accounts.Account),
		)
		defer model.Cancel()

		if err := model.Stream(accounts.Handlers{
			Update: func(u accounts.Update) {
				if err := enc.Encode(u); err != nil {
					logs.Errorf("encode update, err: %+v", err)
				}
			},
			Load: func() {
				logs.Infof("accounts loaded: %v, streaming %q", model.Accounts(), model.Streamed())
			},
			Error: func(err error) {
				logs.Errorf("accounts, err: %+v", err)
			},
		}); err != nil {
			return err
		}

		a.wait(cmd.Context())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to JSON config")
	rootCmd.AddCommand(runCmd, accountsCmd)
}

func printSnapshot(cmd *cobra.Command, a *app) {
	snapshot := a.metrics.Snapshot()
	out := cmd.OutOrStdout()
	for c, v := range snapshot.Counters {
		fmt.Fprintf(out, "%s=%d\n", c, v)
	}
	fmt.Fprintf(out, "queue_drops=%d queue_closed=%d\n", snapshot.QueueDrops, snapshot.QueueClosed)
	fmt.Fprintf(out, "request_latency count=%d avg=%s max=%s\n",
		snapshot.RequestLatency.Count, snapshot.RequestLatency.Avg, snapshot.RequestLatency.Max)
	fmt.Fprintf(out, "first_payload count=%d avg=%s max=%s\n",
		snapshot.FirstPayload.Count, snapshot.FirstPayload.Avg, snapshot.FirstPayload.Max)
	if a.journal != nil {
		written, dropped := a.journal.Stats()
		fmt.Fprintf(out, "journal written=%d dropped=%d\n", written, dropped)
	}
}

