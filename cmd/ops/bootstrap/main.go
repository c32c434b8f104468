// Package main implements the bootstrap CLI for the weather plugin.
//
// It writes the plugin's settings to AWS SSM Parameter Store before the first
// deployment and prints the *_SSM_PARAM environment variables that point the
// service at them.
//
// Usage:
//
//	go run ./cmd/ops/bootstrap --env=dev
//	go run ./cmd/ops/bootstrap --env=prod --profile=weather-prod --region=ap-east-1
//	go run ./cmd/ops/bootstrap --env=dev --overwrite --skip-verify
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"weatherplugin/internal/external"
	"weatherplugin/internal/types"
)

var validEnvironments = map[string]bool{
	"dev":     true,
	"staging": true,
	"prod":    true,
}

// session is the verified AWS identity the bootstrap runs as.
type session struct {
	Environment string
	Profile     string
	Region      string
	AccountID   string
	CallerARN   string
	AWSConfig   aws.Config
}

func main() {
	envFlag := flag.String("env", "", "Target environment (dev/staging/prod) [required]")
	profileFlag := flag.String("profile", "", "AWS CLI profile (default: default credential chain)")
	regionFlag := flag.String("region", "us-east-1", "AWS region")
	overwriteFlag := flag.Bool("overwrite", false, "Replace parameters that already exist")
	skipVerifyFlag := flag.Bool("skip-verify", false, "Do not test the QWeather key against the geocoding API")
	geoURLFlag := flag.String("geo-url", "", "Geocoding endpoint used to verify the key (default: QWeather public API)")
	flag.Parse()

	if *envFlag == "" {
		fmt.Fprintf(os.Stderr, "error: --env is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if !validEnvironments[*envFlag] {
		fmt.Fprintf(os.Stderr, "error: invalid environment %q (must be dev, staging, or prod)\n", *envFlag)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess, err := initializeSession(ctx, *envFlag, *profileFlag, *regionFlag, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	in := bufio.NewScanner(os.Stdin)
	if sess.Environment == "prod" && !confirmProduction(sess, in) {
		fmt.Fprintln(os.Stderr, "Aborted. No changes were made.")
		return
	}
	printBanner(sess)

	runner := &Runner{
		SSM:       NewSSMManager(ssm.NewFromConfig(sess.AWSConfig), sess.Environment, logger),
		Stdin:     os.Stdin,
		Scanner:   in,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Overwrite: *overwriteFlag,
	}
	if !*skipVerifyFlag {
		runner.VerifyKey = newKeyVerifier(*geoURLFlag, logger)
	}

	if err := runner.Run(ctx); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	logger.Info("bootstrap completed", "env", sess.Environment, "account", sess.AccountID)
}

// initializeSession loads the AWS config and confirms the identity with STS.
func initializeSession(ctx context.Context, env, profile, region string, logger *slog.Logger) (*session, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	idCtx, idCancel := context.WithTimeout(ctx, 10*time.Second)
	defer idCancel()

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(idCtx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("verifying AWS identity (profile %q, region %q): %w", profile, region, err)
	}

	sess := &session{
		Environment: env,
		Profile:     profile,
		Region:      region,
		AccountID:   aws.ToString(identity.Account),
		CallerARN:   aws.ToString(identity.Arn),
		AWSConfig:   cfg,
	}
	logger.Info("AWS identity verified", "account_id", sess.AccountID, "arn", sess.CallerARN, "region", region)
	return sess, nil
}

// newKeyVerifier checks a QWeather key by looking up a well-known city.
func newKeyVerifier(geoURL string, logger *slog.Logger) func(context.Context, string) error {
	return func(ctx context.Context, key string) error {
		httpClient, err := external.NewHTTPClient(external.HTTPClientConfig{Timeout: 10 * time.Second})
		if err != nil {
			return err
		}
		defer httpClient.CloseIdleConnections()

		geo := external.NewGeoClient(httpClient, external.GeoClientConfig{
			BaseURL: geoURL,
			Retry:   external.DefaultRetryPolicy(),
			Logger:  logger,
		})
		city, err := geo.LookupCity(ctx, verifyLocation, types.SecretString(key))
		if err != nil {
			return err
		}
		if city == nil {
			return fmt.Errorf("key accepted but %s was not found", verifyLocation)
		}
		return nil
	}
}

// verifyLocation always resolves with a working key.
const verifyLocation = "北京"

func confirmProduction(sess *session, in *bufio.Scanner) bool {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "  WARNING: You are targeting the PRODUCTION environment")
	fmt.Fprintf(os.Stderr, "  Account: %s\n  Region:  %s\n  ARN:     %s\n\n", sess.AccountID, sess.Region, sess.CallerARN)
	fmt.Fprint(os.Stderr, "Type 'yes' to continue: ")

	if !in.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(in.Text()), "yes")
}

func printBanner(sess *session) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "  Weather Plugin Bootstrap")
	fmt.Fprintf(os.Stderr, "  Environment:  %s\n", sess.Environment)
	fmt.Fprintf(os.Stderr, "  AWS Account:  %s\n", sess.AccountID)
	fmt.Fprintf(os.Stderr, "  AWS Region:   %s\n", sess.Region)
	if sess.Profile != "" {
		fmt.Fprintf(os.Stderr, "  Profile:      %s\n", sess.Profile)
	}
	fmt.Fprintf(os.Stderr, "  SSM Prefix:   /%s/%s/\n\n", sess.Environment, ssmNamespace)
}
