// Package cli wires the Cobra command surface onto the Config & CLI layer
// and the batch driver, following the teacher repo's startup narration
// style (banner logging, godotenv, graceful shutdown on signal).
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lawdocs/pipeline/internal/config"
	"github.com/lawdocs/pipeline/internal/driver"
)

// Execute builds and runs the root command, returning the process exit
// code.
func Execute() int {
	v := viper.New()
	exitCode := 0

	root := &cobra.Command{
		Use:          "lawdocs <input_root> <output_root>",
		Short:        "Convert regulatory PDFs into structure-faithful Markdown and metadata",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile := v.GetString("env-file")
			if err := godotenv.Load(envFile); err != nil {
				log.Printf("Warning: %s not found, using system environment variables", envFile)
			}

			cfg, err := config.Load(v, args[0], args[1])
			if err != nil {
				return err
			}

			code, err := run(cmd.Context(), cfg)
			exitCode = code
			return err
		},
	}

	config.BindFlags(root.Flags(), v)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	root.SetContext(sigCtx)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return exitCode
}

func run(ctx context.Context, cfg *config.Config) (int, error) {
	log.Printf("===========================================")
	log.Printf("lawdocs pipeline starting")
	log.Printf("===========================================")
	log.Printf("input=%s output=%s with-ocr=%s dispatch=%s strict=%v",
		cfg.InputRoot, cfg.OutputRoot, cfg.WithOCR, cfg.Dispatch, cfg.Strict)

	d := driver.New(cfg)
	code, err := d.Run(ctx)
	if err != nil {
		return 1, err
	}

	log.Printf("lawdocs pipeline finished, exit=%d", code)
	return code, nil
}
