package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/gradeboard/internal/server"
	"github.com/KaramelBytes/gradeboard/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveListen  string
	servePreload string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the grade analysis API and dashboards over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *currentConfig()
		if serveListen != "" {
			if err := c.Set("listen_addr", serveListen); err != nil {
				return fmt.Errorf("--listen: %w", err)
			}
		}

		st := store.New()
		if servePreload != "" {
			ds, err := buildDataset(servePreload, &c)
			if err != nil {
				return fmt.Errorf("preload: %w", err)
			}
			st.Publish(ds)
			logger.Info("dataset preloaded", "source", ds.Source, "dataset_id", ds.ID, "students", len(ds.Students))
		}

		srv, err := server.New(&c, st, logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config listen_addr)")
	serveCmd.Flags().StringVar(&servePreload, "file", "", "grade sheet to publish before accepting requests")
}
