package workload

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"

	"github.com/minzhuogoogle/gke-on-prem/pkg/kube"
	"github.com/minzhuogoogle/gke-on-prem/pkg/utils"
	"github.com/minzhuogoogle/gke-on-prem/pkg/verify"
)

const (
	stateCheckInterval = 2 * time.Second
	stateCheckRetries  = 30
	deleteWaitBudget   = 60 * time.Second
)

// VerifyDeployed waits for the workload's pods to settle and checks
// that the expected number are running and the deployment agrees.
func (w Workload) VerifyDeployed(ctx context.Context, cluster *kube.Client, expected int) verify.Verdict {
	cli := cluster.KubeClient
	var running, total int

	err := utils.Retry(stateCheckInterval, stateCheckRetries, func() (bool, error) {
		pods, err := kube.GetPods(ctx, w.Selector(), w.Namespace, cli)
		if err != nil {
			return false, err
		}
		total = len(pods)
		running = 0
		settled := true
		for i := range pods {
			switch pods[i].Status.Phase {
			case corev1.PodRunning:
				running++
			case corev1.PodPending:
				settled = false
			}
			if pods[i].DeletionTimestamp != nil {
				settled = false
			}
		}
		return settled && running == expected, nil
	})
	if err != nil {
		return verify.Fatalf(verify.ReasonTimeout,
			"workload %s/%s not settled: %d/%d pods running of %d expected: %v",
			w.Namespace, w.Name, running, total, expected, err)
	}

	dep, err := kube.GetDeployment(ctx, w.Name, w.Namespace, cli)
	if err != nil {
		return verify.Fatalf(verify.ReasonUnreachable, "deployment %s/%s not found: %v", w.Namespace, w.Name, err)
	}
	if int(dep.Status.ReadyReplicas) != expected {
		return verify.Fatalf(verify.ReasonScaleMismatch,
			"deployment %s/%s reports %d ready replicas, expected %d",
			w.Namespace, w.Name, dep.Status.ReadyReplicas, expected)
	}
	return verify.Successf("%d/%d pods running", running, expected)
}

// VerifyService checks the workload service's type and load-balancer
// address against what was provisioned.
func (w Workload) VerifyService(ctx context.Context, cluster *kube.Client) verify.Verdict {
	svc, err := kube.GetService(ctx, w.Name, w.Namespace, cluster.KubeClient)
	if err != nil {
		return verify.Fatalf(verify.ReasonUnreachable, "service %s/%s not found: %v", w.Namespace, w.Name, err)
	}
	if svc.Spec.Type != corev1.ServiceTypeLoadBalancer {
		return verify.Fatalf(verify.ReasonContentMismatch,
			"service %s/%s has type %s, expected %s", w.Namespace, w.Name, svc.Spec.Type, corev1.ServiceTypeLoadBalancer)
	}
	if ip := kube.GetServiceExternalIP(svc); w.LoadBalancerIP != "" && ip != w.LoadBalancerIP {
		return verify.Fatalf(verify.ReasonContentMismatch,
			"service %s/%s exposed on %s, expected %s", w.Namespace, w.Name, ip, w.LoadBalancerIP)
	}
	return verify.Successf("service %s/%s exposed as %s", w.Namespace, w.Name, svc.Spec.Type)
}

// VerifyDeleted waits until no workload pods remain after a withdraw.
func (w Workload) VerifyDeleted(ctx context.Context, cluster *kube.Client) verify.Verdict {
	cli := cluster.KubeClient
	waitCtx, cancel := context.WithTimeout(ctx, deleteWaitBudget)
	defer cancel()

	err := utils.RetryWithContext(waitCtx, stateCheckInterval, func() (bool, error) {
		pods, err := kube.GetPods(ctx, w.Selector(), w.Namespace, cli)
		if err != nil {
			if errors.IsNotFound(err) {
				return true, nil
			}
			return false, err
		}
		return len(pods) == 0, nil
	})
	if err != nil {
		return verify.Fatalf(verify.ReasonTimeout, "workload %s/%s still has resources: %v", w.Namespace, w.Name, err)
	}
	return verify.Successf("workload %s/%s deleted", w.Namespace, w.Name)
}

// Summary describes the workload for report lines.
func (w Workload) Summary() string {
	return fmt.Sprintf("%s/%s image %s replicas %d", w.Namespace, w.Name, w.Image, w.Replicas)
}
