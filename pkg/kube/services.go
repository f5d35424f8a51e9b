package kube

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

func GetService(ctx context.Context, name string, namespace string, cli kubernetes.Interface) (*corev1.Service, error) {
	return cli.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
}

// GetServiceExternalIP returns the load-balancer address of a service,
// preferring the assigned ingress address over the spec field. Empty
// when no address has been assigned yet.
func GetServiceExternalIP(svc *corev1.Service) string {
	for _, ingress := range svc.Status.LoadBalancer.Ingress {
		if ingress.IP != "" {
			return ingress.IP
		}
		if ingress.Hostname != "" {
			return ingress.Hostname
		}
	}
	if len(svc.Spec.ExternalIPs) > 0 {
		return svc.Spec.ExternalIPs[0]
	}
	return svc.Spec.LoadBalancerIP
}
