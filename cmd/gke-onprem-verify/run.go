package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/minzhuogoogle/gke-on-prem/pkg/config"
	"github.com/minzhuogoogle/gke-on-prem/pkg/kube"
	"github.com/minzhuogoogle/gke-on-prem/pkg/network"
	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
	"github.com/minzhuogoogle/gke-on-prem/pkg/report"
	"github.com/minzhuogoogle/gke-on-prem/pkg/verify"
	"github.com/minzhuogoogle/gke-on-prem/pkg/workload"
)

// errAborted stops the remaining checks of a run when abortOnFailure is
// set; the errgroup context then cancels the sibling cluster runs.
var errAborted = fmt.Errorf("verification aborted on fatal verdict")

type clusterRun struct {
	name     string
	cluster  *kube.Client
	verifier *verify.Verifier
	ops      workload.Ops
	cfg      *config.RunConfig
	rep      *report.Report
}

func newClusterRun(kubeconfig string, cfg *config.RunConfig, rep *report.Report, sink *report.FileSink) (*clusterRun, error) {
	cluster, err := kube.NewClient(kubeconfig)
	if err != nil {
		return nil, err
	}
	verifier := verify.New(probe.New(cluster, network.NewProber()))
	verifier.Log = sink
	sink.Record(fmt.Sprintf("verifying cluster %s (API server %s)", kubeconfig, cluster.ServerHost()))
	return &clusterRun{
		name:     kubeconfig,
		cluster:  cluster,
		verifier: verifier,
		ops:      workload.Ops{Cluster: cluster},
		cfg:      cfg,
		rep:      rep,
	}, nil
}

// record adds the verdict to the report and decides whether the run
// keeps going.
func (r *clusterRun) record(check string, verdict verify.Verdict) error {
	r.rep.Add(r.name, check, verdict)
	log.Printf("[%s] %s: %s", r.name, check, verdict)
	if verdict.Code == verify.Fatal && r.cfg.AbortOnFailure {
		return errAborted
	}
	return nil
}

func (r *clusterRun) readinessConfig() verify.ReadinessConfig {
	t := r.cfg.Thresholds
	return verify.ReadinessConfig{
		RequiredCount:  t.RequiredNodes,
		ExpectedCount:  t.ExpectedNodes,
		Interval:       time.Duration(t.PollIntervalSeconds) * time.Second,
		MaxAttempts:    t.MaxAttempts,
		GraceExtension: time.Duration(t.GraceExtensionSeconds) * time.Second,
	}
}

func (r *clusterRun) serviceConfig() verify.ServiceConfig {
	return verify.ServiceConfig{
		VIP:    r.cfg.LoadBalancerIP,
		Expect: r.cfg.ExpectedContent,
	}
}

// runDiagnose runs the platform diagnose check; it is the only check
// applied to the admin cluster.
func (r *clusterRun) runDiagnose(ctx context.Context) error {
	if r.cfg.LightMode {
		return nil
	}
	verdict, err := r.verifier.VerifyDiagnose(ctx, &kube.GkectlRunner{Kubeconfig: r.cluster.Kubeconfig}, verify.DiagnoseConfig{})
	if err != nil {
		return err
	}
	return r.record("cluster_diagnose", verdict)
}

// verifyUser runs the full user-cluster sequence: diagnose, node
// readiness, workload deployment and its checks, service health,
// traffic, replica scaling, rolling upgrade, withdrawal. The sanity
// workload is cleaned up on every exit path.
func (r *clusterRun) verifyUser(ctx context.Context) (err error) {
	if !r.cfg.LightMode {
		if err = r.runDiagnose(ctx); err != nil {
			return err
		}
	}

	if r.cfg.Thresholds.ExpectedNodes > 0 {
		verdict, verr := r.verifier.VerifyReadiness(ctx, r.readinessConfig())
		if verr != nil {
			return verr
		}
		if err = r.record("node_readiness", verdict); err != nil {
			return err
		}
	}

	wl := workload.Sanity(r.cfg.LoadBalancerIP)
	if err = wl.Deploy(ctx, r.cluster); err != nil {
		return fmt.Errorf("workload deployment failed: %v", err)
	}
	defer func() {
		// Provisioned test workloads never outlive the run, even a
		// cancelled one.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if cerr := wl.Cleanup(cleanupCtx, r.cluster); cerr != nil {
			log.Printf("[%s] workload cleanup failed: %v", r.name, cerr)
		}
	}()

	if err = r.record("workload_deployed", wl.VerifyDeployed(ctx, r.cluster, int(wl.Replicas))); err != nil {
		return err
	}
	if err = r.record("workload_service", wl.VerifyService(ctx, r.cluster)); err != nil {
		return err
	}

	health, verr := r.verifier.VerifyServiceHealth(ctx, r.serviceConfig())
	if verr != nil {
		return verr
	}
	if err = r.record("service_health", health); err != nil {
		return err
	}

	if !r.cfg.LightMode && health.Passed() {
		traffic, verr := verify.VerifyTraffic(verify.TrafficConfig{
			URL: fmt.Sprintf("http://%s/index.html", r.cfg.LoadBalancerIP),
		})
		if verr != nil {
			return verr
		}
		if err = r.record("service_traffic", traffic); err != nil {
			return err
		}
	}

	newReplicas := wl.Replicas * 2
	if err = r.ops.Scale(ctx, wl.Ref(), newReplicas); err != nil {
		return fmt.Errorf("scaling workload failed: %v", err)
	}
	scale, verr := r.verifier.VerifyScale(ctx, r.ops, verify.ScaleConfig{
		Deployment: wl.Ref(),
		Want:       int(newReplicas),
	})
	if verr != nil {
		return verr
	}
	if err = r.record("workload_scale", scale); err != nil {
		return err
	}

	if r.cfg.UpgradeImage != "" {
		upgrade, verr := r.verifier.VerifyRollingUpgrade(ctx, r.ops, verify.UpgradeConfig{
			Service:    r.serviceConfig(),
			Deployment: wl.Ref(),
			Image:      r.cfg.UpgradeImage,
		})
		if verr != nil {
			return verr
		}
		if err = r.record("rolling_upgrade", upgrade); err != nil {
			return err
		}
	}

	if err = wl.Withdraw(ctx, r.cluster); err != nil {
		return fmt.Errorf("workload withdraw failed: %v", err)
	}
	return r.record("workload_deleted", wl.VerifyDeleted(ctx, r.cluster))
}

// runAll verifies the admin cluster, then every user cluster. User
// clusters share no state, so they run concurrently; verdicts are
// aggregated in the report afterward.
func runAll(ctx context.Context, cfg *config.RunConfig, rep *report.Report, sink *report.FileSink) error {
	admin, err := newClusterRun(cfg.AdminKubeconfigFile(), cfg, rep, sink)
	if err != nil {
		return err
	}
	if err := admin.runDiagnose(ctx); err != nil && err != errAborted {
		return err
	}

	for loop := 1; loop <= cfg.TestLoops; loop++ {
		log.Printf("starting verification loop %d/%d", loop, cfg.TestLoops)
		group, groupCtx := errgroup.WithContext(ctx)
		for _, kubeconfig := range cfg.UserKubeconfigFiles() {
			kubeconfig := kubeconfig
			group.Go(func() error {
				run, err := newClusterRun(kubeconfig, cfg, rep, sink)
				if err != nil {
					return err
				}
				return run.verifyUser(groupCtx)
			})
		}
		if err := group.Wait(); err != nil {
			if err == errAborted {
				return nil
			}
			return err
		}
	}
	return nil
}
