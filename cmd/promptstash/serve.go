package main

import (
	"github.com/spf13/cobra"

	"github.com/kimhsiao/promptstash/internal/server"
	"github.com/kimhsiao/promptstash/internal/view"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the localhost HTTP API",
	Long: `Start the localhost HTTP server the sidebar client talks to.

Endpoints:
  GET/POST/PUT/DELETE /prompts      collection CRUD
  POST /prompts/reorder             move a prompt
  GET /tags                         distinct tags
  POST /export, POST /import        collection exchange
  GET /healthz                      health check
  GET /ws                           WebSocket event stream`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		addr := serveAddr
		if addr == "" {
			addr = a.cfg.ListenAddr
		}

		srv := server.New(server.Config{
			Addr:       addr,
			Controller: view.NewController(cmd.Context(), a.store),
			Exporter:   a.export,
			Printer:    a.printer,
		})
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
