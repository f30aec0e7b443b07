package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bugboard/bugboard/internal/api"
	"github.com/bugboard/bugboard/internal/auth"
	"github.com/bugboard/bugboard/internal/llm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server exposing the JSON API under /api/v1.\nBy default it listens on port 8080. Use --port to change it.\nRequests authenticate with a bearer token from POST /api/v1/auth/login.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		secret := viper.GetString("auth.secret")
		if secret == "" {
			return fmt.Errorf("auth.secret is not set: add it to your config or export BUGBOARD_AUTH_SECRET")
		}
		authn, err := auth.New(s, secret)
		if err != nil {
			return err
		}

		llmClient := llm.NewClient(viper.GetString("anthropic.api_key"), viper.GetString("anthropic.model"))
		srv := api.NewServer(s, authn, llmClient, allowClosed())

		port := viper.GetInt("port")
		addr := fmt.Sprintf(":%d", port)
		fmt.Printf("Serving API at http://localhost%s/api/v1\n", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	viper.SetDefault("port", 8080)
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
