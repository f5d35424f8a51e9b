package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minzhuogoogle/gke-on-prem/pkg/config"
	"github.com/minzhuogoogle/gke-on-prem/pkg/report"
)

var version = "undefined"

func main() {
	var cfgFile string
	cfg := &config.RunConfig{}
	var userKubeconfigs string

	var cmdVerify = &cobra.Command{
		Use:   "gke-onprem-verify",
		Short: "Verify an on-prem cluster and its load-balanced workload",
		Long: `gke-onprem-verify checks that an on-prem cluster is healthy and that a
load-balanced sanity workload deployed on it survives node-count changes,
replica changes and rolling image upgrades.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				loaded, err := config.Load(cfgFile)
				if err != nil {
					return err
				}
				merge(cfg, loaded, cmd.Flags())
			}
			if userKubeconfigs != "" {
				cfg.UserKubeconfigs = strings.Split(userKubeconfigs, ",")
			}
			if cfg.TestLoops == 0 {
				cfg.TestLoops = 1
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := cmdVerify.Flags()
	flags.StringVar(&cfgFile, "config", "", "yaml run configuration; flags override its values")
	flags.StringVar(&cfg.ClusterCfgPath, "cfgpath", "", "path holding cluster kubeconfig files")
	flags.StringVar(&cfg.AdminKubeconfig, "admin", "", "admin cluster kubeconfig file")
	flags.StringVar(&userKubeconfigs, "user", "", "comma-separated user cluster kubeconfig files")
	flags.StringVar(&cfg.LoadBalancerIP, "lbip", "", "load-balancer IP for the sanity service")
	flags.StringVar(&cfg.UpgradeImage, "upgrade-image", "", "image the rolling-upgrade check rolls to")
	flags.IntVar(&cfg.Thresholds.RequiredNodes, "required-nodes", 0, "minimum ready nodes below which the cluster is broken")
	flags.IntVar(&cfg.Thresholds.ExpectedNodes, "expected-nodes", 0, "configured node count")
	flags.IntVar(&cfg.TestLoops, "loop", 1, "number of times to run the user cluster checks")
	flags.BoolVar(&cfg.AbortOnFailure, "abort", false, "abort the run on the first fatal verdict")
	flags.BoolVar(&cfg.LightMode, "lightmode", false, "skip the slow checks")
	flags.StringVar(&cfg.Report.LogPrefix, "testlog", "gkeonprem.test", "prefix for the report log file")
	flags.StringVar(&cfg.Report.GCSBucket, "gcs", "", "GCS bucket receiving the report log")
	flags.StringVar(&cfg.Report.ServiceAccount, "serviceacct", "", "service account key file for the GCS upload")
	flags.StringVar(&cfg.Report.Partner, "partner", "unknown", "partner the run is executed for")

	var cmdVersion = &cobra.Command{
		Use:   "version",
		Short: "Report the verifier version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
	cmdVerify.AddCommand(cmdVersion)

	if err := cmdVerify.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.RunConfig) error {
	logFile := fmt.Sprintf("%s.%s.T%s.log", cfg.Report.LogPrefix, cfg.Report.Partner, time.Now().Format("2006-01-02-15-04"))
	sink, err := report.NewFileSink(logFile)
	if err != nil {
		return err
	}
	defer sink.Close()

	rep := report.New(sink)
	sink.Record(fmt.Sprintf("verification run %s starting for partner %s", rep.RunID, cfg.Report.Partner))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := runAll(ctx, cfg, rep, sink)

	rep.Summary(os.Stdout)
	sink.Record("verification run finished")

	if cfg.Report.GCSBucket != "" {
		uploadCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := report.UploadLog(uploadCtx, cfg.Report.GCSBucket, sink.Path(), cfg.Report.ServiceAccount); err != nil {
			log.Printf("report upload failed, keep %s and upload it manually: %v", sink.Path(), err)
		} else {
			log.Printf("report log uploaded to gs://%s", cfg.Report.GCSBucket)
		}
	}

	if runErr != nil {
		return runErr
	}
	if rep.Failed() {
		return fmt.Errorf("verification failed, see %s", sink.Path())
	}
	return nil
}

// merge copies loaded config values under any explicitly set flags.
// Flags with non-zero defaults (loop, testlog, partner) are checked
// through the flag set; their values alone cannot tell "default" from
// "operator-supplied".
func merge(dst *config.RunConfig, src *config.RunConfig, flags *pflag.FlagSet) {
	if dst.ClusterCfgPath == "" {
		dst.ClusterCfgPath = src.ClusterCfgPath
	}
	if dst.AdminKubeconfig == "" {
		dst.AdminKubeconfig = src.AdminKubeconfig
	}
	if len(dst.UserKubeconfigs) == 0 {
		dst.UserKubeconfigs = src.UserKubeconfigs
	}
	if dst.LoadBalancerIP == "" {
		dst.LoadBalancerIP = src.LoadBalancerIP
	}
	if dst.UpgradeImage == "" {
		dst.UpgradeImage = src.UpgradeImage
	}
	if dst.ExpectedContent == "" {
		dst.ExpectedContent = src.ExpectedContent
	}
	if dst.Thresholds.RequiredNodes == 0 {
		dst.Thresholds.RequiredNodes = src.Thresholds.RequiredNodes
	}
	if dst.Thresholds.ExpectedNodes == 0 {
		dst.Thresholds.ExpectedNodes = src.Thresholds.ExpectedNodes
	}
	dst.Thresholds.MaxAttempts = src.Thresholds.MaxAttempts
	dst.Thresholds.PollIntervalSeconds = src.Thresholds.PollIntervalSeconds
	dst.Thresholds.GraceExtensionSeconds = src.Thresholds.GraceExtensionSeconds
	if !flags.Changed("loop") && src.TestLoops != 0 {
		dst.TestLoops = src.TestLoops
	}
	if !flags.Changed("testlog") && src.Report.LogPrefix != "" {
		dst.Report.LogPrefix = src.Report.LogPrefix
	}
	if !flags.Changed("partner") && src.Report.Partner != "" {
		dst.Report.Partner = src.Report.Partner
	}
	if !dst.AbortOnFailure {
		dst.AbortOnFailure = src.AbortOnFailure
	}
	if !dst.LightMode {
		dst.LightMode = src.LightMode
	}
	if dst.Report.GCSBucket == "" {
		dst.Report.GCSBucket = src.Report.GCSBucket
	}
	if dst.Report.ServiceAccount == "" {
		dst.Report.ServiceAccount = src.Report.ServiceAccount
	}
}
