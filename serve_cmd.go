package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/docent/generate"
	"github.com/dgnsrekt/docent/internal/server"
	"github.com/dgnsrekt/docent/internal/share"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the narration proxy and guidebook server",
	Long: paragraph(fmt.Sprintf("\n%s a server that streams narration to clients without an API key of their own "+
		"and stores shared guidebooks. The upstream key is read from API_KEY or GEMINI_API_KEY, "+
		"after loading a .env file from the working directory.", keyword("Run"))),
	Example: paragraph("API_KEY=... docent serve --listen :8080\ndocent --backend proxy --config client.yml describe photo.jpg"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// the server logs to the terminal
		log.SetOutput(os.Stderr)

		cfg, err := server.LoadConfig()
		if err != nil {
			return err //nolint:wrapcheck
		}
		if os.Getenv("DOCENT_LISTEN") == "" && viper.IsSet("server.listen") {
			cfg.Listen = viper.GetString("server.listen")
		}
		if os.Getenv("DOCENT_REQUESTS_PER_MINUTE") == "" && viper.IsSet("server.requests_per_minute") {
			cfg.RequestsPerMinute = viper.GetInt("server.requests_per_minute")
		}

		var upstream server.Upstream
		if key := cfg.Key(); key != "" {
			g, err := generate.NewGemini(cmd.Context(), key, cfg.Model, "")
			if err != nil {
				return fmt.Errorf("gemini client: %w", err)
			}
			upstream = generate.New(g)
		} else {
			log.Warn("No API_KEY set; generate requests will fail")
		}

		dir := expandPath(cfg.ShareDir)
		if dir == "" {
			if dir, err = dataPath("guidebooks"); err != nil {
				return err
			}
		}
		shares, err := share.OpenStore(dir)
		if err != nil {
			return fmt.Errorf("unable to open guidebook store: %w", err)
		}
		defer func() { _ = shares.Close() }()

		return server.New(cfg, upstream, shares).Run(cmd.Context(), cfg.Listen, cfg.ShutdownTimeout) //nolint:wrapcheck
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (default :8080)")
	_ = viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}
