package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthml/hearth/internal/ml"
	"github.com/hearthml/hearth/internal/server"
	"github.com/hearthml/hearth/internal/service"
	"github.com/hearthml/hearth/internal/telemetry"
)

const banner = `
 _  _ ___   _   ___ _____ _  _
| || | __| /_\ | _ \_   _| || |
| __ | _| / _ \|   / | | | __ |
|_||_|___/_/ \_\_|_\ |_| |_||_|
`

func newServeCmd() *cobra.Command {
	var (
		port      int
		host      string
		dev       bool
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Hearth API server",
		Long:  "Start the HTTP server that exposes the prediction, auth, and audit log APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev, modelPath)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging, CORS *)")
	cmd.Flags().StringVar(&modelPath, "model", "", "Path to the model coefficients file (default: ./model.yaml)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("model.path", cmd.Flags().Lookup("model"))

	return cmd
}

func runServe(host string, port int, dev bool, modelPath string) error {
	fmt.Print(banner)
	fmt.Println()

	environment := viper.GetString("environment")
	if environment == "" {
		environment = "development"
	}
	if dev {
		environment = "development"
	}

	// Set up logger
	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// 1. Open the store
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "driver", viper.GetString("db.driver"))

	// 2. Load the model
	if modelPath == "" {
		modelPath = viper.GetString("model.path")
	}
	if modelPath == "" {
		modelPath = "model.yaml"
	}
	m, err := ml.Load(modelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	logger.Info("model loaded", "path", modelPath)

	// 3. Initialize services
	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		if environment == "production" {
			return fmt.Errorf("auth.jwt_secret must be set in production (HEARTH_AUTH_JWT_SECRET)")
		}
		jwtSecret = "hearth-dev-secret-change-me"
		logger.Warn("no JWT secret configured, using development default")
	}

	tokenTTL := service.DefaultTokenTTL
	if minutes := viper.GetInt("auth.token_ttl_minutes"); minutes > 0 {
		tokenTTL = time.Duration(minutes) * time.Minute
	}

	authSvc := service.NewAuthService(st, service.AuthConfig{
		JWTSecret:  jwtSecret,
		TokenTTL:   tokenTTL,
		BcryptCost: viper.GetInt("auth.bcrypt_cost"),
	})
	predSvc := service.NewPredictionService(m, st)
	metrics := telemetry.New()

	// 4. Build and start HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = host
	srvCfg.Port = port
	srvCfg.Environment = environment
	if origins := viper.GetStringSlice("cors.origins"); len(origins) > 0 {
		srvCfg.CORSOrigins = origins
	}
	if n := viper.GetInt("ratelimit.keys_per_hour"); n > 0 {
		srvCfg.KeysPerHour = n
	}
	if n := viper.GetInt("ratelimit.tokens_per_minute"); n > 0 {
		srvCfg.TokensPerMinute = n
	}
	if n := viper.GetInt("ratelimit.requests_per_minute"); n > 0 {
		srvCfg.RequestsPerMinute = n
	}

	srv := server.New(srvCfg, st, authSvc, predSvc, metrics, logger)

	fmt.Printf("→ Hearth %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ Health:  http://%s:%d/healthz\n", host, port)
	fmt.Printf("→ Metrics: http://%s:%d/metrics\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}
