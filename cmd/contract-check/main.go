// cmd/contract-check/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grant-intake/internal/common/config"
	"grant-intake/internal/common/logger"
	"grant-intake/internal/forms"
	"grant-intake/internal/salesforce"
)

type options struct {
	configPath string
	objectType string
	formTypes  []string
	timeout    time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "contract-check",
		Short: "Verify form field mappings against the Salesforce object",
		Long: "Describes the Application object and reports mapped fields that are missing or " +
			"not createable, then validates a sample record for every form type against a " +
			"schema derived from the describe result.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a config file (defaults to configs/config.yaml)")
	flags.StringVar(&opts.objectType, "object", "", "Salesforce object to check (defaults to salesforce.object_type)")
	flags.StringSliceVarP(&opts.formTypes, "form", "f", nil, "form slugs to check, e.g. rfp,wishlist (defaults to all)")
	flags.DurationVar(&opts.timeout, "timeout", time.Minute, "overall time limit")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	formTypes, err := parseFormTypes(opts.formTypes)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if err := forms.VerifyRegistry(); err != nil {
		return err
	}

	client, err := salesforce.NewClient(salesforce.ConfigFromApp(cfg.Salesforce), log, nil)
	if err != nil {
		return err
	}

	objectType := opts.objectType
	if objectType == "" {
		objectType = cfg.Salesforce.ObjectType
	}
	if objectType == "" {
		objectType = "Application__c"
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	c := &checker{cache: salesforce.NewMetadataCache(client, 0), objectType: objectType}
	reports, err := c.run(ctx, formTypes)
	if err != nil {
		return err
	}

	if !printReports(cmd.OutOrStdout(), objectType, reports) {
		zapLog.Warn("contract check failed", zap.String("object", objectType))
		return fmt.Errorf("%s does not accept every mapped field", objectType)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func parseFormTypes(slugs []string) ([]forms.FormType, error) {
	if len(slugs) == 0 {
		return forms.AllFormTypes, nil
	}
	out := make([]forms.FormType, 0, len(slugs))
	for _, slug := range slugs {
		ft, err := forms.ParseFormType(slug)
		if err != nil {
			return nil, err
		}
		out = append(out, ft)
	}
	return out, nil
}
