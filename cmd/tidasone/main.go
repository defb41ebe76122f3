package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tidasone/internal/config"
	"github.com/dropDatabas3/tidasone/internal/http/server"
	"github.com/dropDatabas3/tidasone/internal/jwt"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
	"github.com/dropDatabas3/tidasone/internal/security/secretbox"
)

// version se setea con -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, in io.Reader) *cobra.Command {
	var (
		configPath = os.Getenv(config.PathEnv)
		envFile    = ".env"
	)

	root := &cobra.Command{
		Use:           "tidasone",
		Short:         "Login OAuth con bearer tokens y primitivas KEM/AEAD",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; un archivo ilegible sí es error
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("cargando %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Ruta al YAML de config (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&envFile, "env-file", envFile, "Archivo .env a cargar si existe")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{
			Env:     cfg.App.Env,
			Level:   cfg.App.LogLevel,
			Service: "tidasone",
			Version: version,
		})
		return cfg, nil
	}

	// serve
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, server.Options{Version: version})
		},
	}

	// token mint
	var (
		mintSub      string
		mintProvider string
		mintTTL      time.Duration
	)
	tokenMintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Firma un bearer token para pruebas (usa JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(mintSub) == "" {
				return fmt.Errorf("--sub es requerido")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ttl := cfg.JWT.TTL
			if mintTTL > 0 {
				ttl = mintTTL
			}
			iss, err := jwt.NewIssuer(cfg.JWT.Secret, ttl)
			if err != nil {
				return err
			}
			tok, claims, err := iss.Mint(mintSub, mintProvider)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "sub=%s provider=%s exp=%s\n", claims.Subject, claims.Provider, time.Unix(claims.ExpiresAt, 0).UTC().Format(time.RFC3339))
			return nil
		},
	}
	tokenMintCmd.Flags().StringVar(&mintSub, "sub", "", "Subject del token")
	tokenMintCmd.Flags().StringVar(&mintProvider, "provider", "cli", "Proveedor a registrar en el claim provider")
	tokenMintCmd.Flags().DurationVar(&mintTTL, "ttl", 0, "Vida del token (default JWT_TTL)")

	tokenCmd := &cobra.Command{Use: "token", Short: "Operaciones sobre bearer tokens"}
	tokenCmd.AddCommand(tokenMintCmd)

	// secrets gen-key
	genKeyCmd := &cobra.Command{
		Use:   "gen-key",
		Short: "Genera una clave para " + secretbox.EnvVar,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, k)
			return nil
		},
	}

	// secrets seal
	var sealValue string
	sealCmd := &cobra.Command{
		Use:   "seal",
		Short: "Sella un secreto con " + secretbox.EnvVar + " (valor por --value o stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := os.Getenv(secretbox.EnvVar)
			if key == "" {
				return fmt.Errorf("falta %s", secretbox.EnvVar)
			}
			box, err := secretbox.New(key)
			if err != nil {
				return err
			}
			plain := sealValue
			if plain == "" {
				line, err := bufio.NewReader(in).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			if plain == "" {
				return fmt.Errorf("valor vacío")
			}
			sealed, err := box.Seal(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, sealed)
			return nil
		},
	}
	sealCmd.Flags().StringVar(&sealValue, "value", "", "Valor a sellar (si falta se lee una línea de stdin)")

	secretsCmd := &cobra.Command{Use: "secrets", Short: "Manejo de secretos sellados"}
	secretsCmd.AddCommand(genKeyCmd, sealCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(out, version)
		},
	}

	// wiring
	root.AddCommand(serveCmd, tokenCmd, secretsCmd, versionCmd)
	return root
}
