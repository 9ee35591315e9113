package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/emaland/matchbox/internal/catalog"
	mbconfig "github.com/emaland/matchbox/internal/config"
	"github.com/emaland/matchbox/internal/matcher"
	mbpricing "github.com/emaland/matchbox/internal/pricing"
)

var (
	mcfg   mbconfig.MatchboxConfig
	awsCfg aws.Config
	mtch   *matcher.Matcher

	region string
)

// priceListRegion hosts the Price List API endpoint; prices for any region
// can be queried through it.
const priceListRegion = "us-east-1"

const awsCredentialGuidance = `AWS credentials not found. Configure them using one of:

  aws sso login                        If you use AWS IAM Identity Center (SSO)
  aws configure                        Interactive setup for ~/.aws/credentials
  export AWS_ACCESS_KEY_ID=...         Set credentials via environment variables
  export AWS_SECRET_ACCESS_KEY=...
  export AWS_PROFILE=my-profile        Use a named profile from ~/.aws/config

Docs: https://docs.aws.amazon.com/cli/latest/userguide/cli-configure-files.html`

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "matchbox",
		Short: "Recommend EC2 instance types for a set of hardware requirements",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			mcfg, err = mbconfig.LoadConfig()
			if err != nil {
				return err
			}
			if region == "" {
				region = mcfg.Region
			}
			// Listing presets needs no AWS access.
			if cmd.Name() == "workloads" {
				return nil
			}
			ctx := cmd.Context()
			awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
			if err != nil {
				return err
			}

			// Verify credentials are valid before any command runs.
			stsClient := sts.NewFromConfig(awsCfg)
			if _, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
				fmt.Fprintln(os.Stderr, awsCredentialGuidance)
				return err
			}

			ec2Client := ec2.NewFromConfig(awsCfg)
			pricingClient := pricing.NewFromConfig(awsCfg, func(o *pricing.Options) {
				o.Region = priceListRegion
			})
			mtch = matcher.New(
				catalog.NewEC2Catalog(ec2Client),
				mbpricing.NewAWSSource(pricingClient, ec2Client, region),
			)
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&region, "region", "", "AWS region to price against (defaults to config)")
	root.AddCommand(
		newMatchCmd(),
		newBestCmd(),
		newCompareCmd(),
		newWorkloadsCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
