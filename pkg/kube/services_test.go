package kube

import (
	"testing"

	"gotest.tools/assert"
	corev1 "k8s.io/api/core/v1"
)

func TestGetServiceExternalIP(t *testing.T) {
	type test struct {
		name     string
		svc      *corev1.Service
		expected string
	}

	testTable := []test{
		{
			name: "ingress-ip-assigned",
			svc: &corev1.Service{
				Spec: corev1.ServiceSpec{LoadBalancerIP: "10.0.0.5"},
				Status: corev1.ServiceStatus{
					LoadBalancer: corev1.LoadBalancerStatus{
						Ingress: []corev1.LoadBalancerIngress{{IP: "10.0.0.9"}},
					},
				},
			},
			expected: "10.0.0.9",
		}, {
			name: "ingress-hostname",
			svc: &corev1.Service{
				Status: corev1.ServiceStatus{
					LoadBalancer: corev1.LoadBalancerStatus{
						Ingress: []corev1.LoadBalancerIngress{{Hostname: "lb.example.com"}},
					},
				},
			},
			expected: "lb.example.com",
		}, {
			name: "external-ips-fallback",
			svc: &corev1.Service{
				Spec: corev1.ServiceSpec{ExternalIPs: []string{"10.0.0.7", "10.0.0.8"}},
			},
			expected: "10.0.0.7",
		}, {
			name: "spec-load-balancer-ip",
			svc: &corev1.Service{
				Spec: corev1.ServiceSpec{LoadBalancerIP: "10.0.0.5"},
			},
			expected: "10.0.0.5",
		}, {
			name:     "nothing-assigned",
			svc:      &corev1.Service{},
			expected: "",
		},
	}

	for _, item := range testTable {
		t.Run(item.name, func(t *testing.T) {
			assert.Equal(t, item.expected, GetServiceExternalIP(item.svc))
		})
	}
}
