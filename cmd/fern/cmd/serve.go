package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the optional listing consumer",
	Example: `  # Serve with the embedded alias dataset
  DB_HOST=localhost DB_USER_NAME=fern fern serve

  # Cache results and consume scraped listings
  REDIS_ENABLED=true KAFKA_CONSUMER_ENABLED=true fern serve`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.New(cfg, logger).Run(cmd.Context())
	},
}
