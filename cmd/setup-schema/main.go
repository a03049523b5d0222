// Package main provides the setup-schema CLI, which creates the KYC credential
// schema on chain and records its object id in the env file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"kycgate/internal/chain"
	"kycgate/internal/chain/signer"
	"kycgate/internal/chain/sui"
	"kycgate/internal/credential/schema"
	"kycgate/internal/platform/config"
	"kycgate/internal/platform/logger"
)

// clientFactory dials the ledger named in configuration.
type clientFactory func(rpcURL string) chain.Client

func main() {
	dial := func(rpcURL string) chain.Client { return sui.New(rpcURL) }
	if err := newRootCmd(dial).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(dial clientFactory) *cobra.Command {
	var (
		envFile string
		force   bool
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "setup-schema",
		Short: "Create the KYC credential schema on chain",
		Long: `Create the KYC credential schema on chain and write its object id to
SUI_SCHEMA_ID in the env file. An existing SUI_SCHEMA_ID that still resolves
on chain is kept unless --force is given.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runSetup(ctx, cmd, dial, envFile, force, dryRun)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Env file to read and update")
	cmd.Flags().BoolVar(&force, "force", false, "Create a new schema even if SUI_SCHEMA_ID resolves")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the schema id without rewriting the env file")

	return cmd
}

func runSetup(ctx context.Context, cmd *cobra.Command, dial clientFactory, envFile string, force, dryRun bool) error {
	cfg, err := config.LoadForSchemaSetup(envFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Environment)

	issuerKey, err := signer.FromBase64(cfg.Chain.IssuerSecretKey)
	if err != nil {
		return err
	}
	gateway := chain.NewGateway(dial(cfg.Chain.RPCURL), cfg.Chain.GasBudget, chain.WithLogger(log))

	configured := chain.ObjectID(cfg.Chain.SchemaID)
	if force {
		configured = ""
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Creating KYC schema...")
	schemaID, err := schema.New(gateway, issuerKey, cfg.Chain.PackageID, schema.WithLogger(log)).
		EnsureSchema(ctx, configured, schema.KYCName, schema.KYCFields())
	if err != nil {
		return fmt.Errorf("setting up schema: %w", err)
	}

	if schemaID == configured {
		fmt.Fprintln(out, "Schema already exists with ID:", schemaID)
		return nil
	}
	fmt.Fprintln(out, "Schema created with ID:", schemaID)

	if dryRun {
		return nil
	}
	if err := config.SaveSchemaID(envFile, schemaID.String()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %s with new schema ID\n", envFile)
	return nil
}
