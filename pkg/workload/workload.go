// Package workload owns the sanity workload deployed to exercise a
// cluster: an nginx deployment behind a LoadBalancer service pinned to
// the operator-supplied VIP. The verification core never deploys
// anything itself; it only observes what this package provisions.
package workload

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/minzhuogoogle/gke-on-prem/pkg/kube"
	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
)

const (
	DefaultNamespace = "nginx-sanity-ns"
	DefaultName      = "nginx-sanity-test"
	DefaultImage     = "nginx:1.7.9"
	DefaultReplicas  = 3
	servicePort      = 80
)

// Workload describes the sanity deployment and its service.
type Workload struct {
	Namespace      string
	Name           string
	Image          string
	Replicas       int32
	LoadBalancerIP string
}

// Sanity returns the stock nginx sanity workload exposed on the given
// load-balancer address.
func Sanity(loadBalancerIP string) Workload {
	return Workload{
		Namespace:      DefaultNamespace,
		Name:           DefaultName,
		Image:          DefaultImage,
		Replicas:       DefaultReplicas,
		LoadBalancerIP: loadBalancerIP,
	}
}

func (w Workload) Ref() probe.DeploymentRef {
	return probe.DeploymentRef{Namespace: w.Namespace, Name: w.Name}
}

func (w Workload) labels() map[string]string {
	return map[string]string{"app": w.Name}
}

// Selector returns the label selector matching the workload's pods.
func (w Workload) Selector() string {
	return "app=" + w.Name
}

func (w Workload) deployment() *appsv1.Deployment {
	replicas := w.Replicas
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      w.Name,
			Namespace: w.Namespace,
			Labels:    w.labels(),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: w.labels(),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: w.labels(),
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  w.Name,
							Image: w.Image,
							Ports: []corev1.ContainerPort{
								{ContainerPort: servicePort},
							},
						},
					},
				},
			},
		},
	}
}

func (w Workload) service() *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      w.Name,
			Namespace: w.Namespace,
		},
		Spec: corev1.ServiceSpec{
			Type:           corev1.ServiceTypeLoadBalancer,
			Selector:       w.labels(),
			LoadBalancerIP: w.LoadBalancerIP,
			Ports: []corev1.ServicePort{
				{
					Port:       servicePort,
					Protocol:   corev1.ProtocolTCP,
					TargetPort: intstr.FromInt(servicePort),
				},
			},
		},
	}
}

// Deploy creates the namespace, deployment and service, updating any
// that already exist so re-runs behave like kubectl apply.
func (w Workload) Deploy(ctx context.Context, cluster *kube.Client) error {
	cli := cluster.KubeClient
	if _, err := kube.NewNamespace(ctx, w.Namespace, cli); err != nil {
		return fmt.Errorf("error creating namespace %s: %v", w.Namespace, err)
	}

	dep := w.deployment()
	if _, err := cli.AppsV1().Deployments(w.Namespace).Create(ctx, dep, metav1.CreateOptions{}); err != nil {
		if !errors.IsAlreadyExists(err) {
			return fmt.Errorf("error creating deployment %s: %v", w.Name, err)
		}
		existing, err := kube.GetDeployment(ctx, w.Name, w.Namespace, cli)
		if err != nil {
			return err
		}
		existing.Spec = dep.Spec
		if _, err := cli.AppsV1().Deployments(w.Namespace).Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("error updating deployment %s: %v", w.Name, err)
		}
	}

	svc := w.service()
	if _, err := cli.CoreV1().Services(w.Namespace).Create(ctx, svc, metav1.CreateOptions{}); err != nil {
		if !errors.IsAlreadyExists(err) {
			return fmt.Errorf("error creating service %s: %v", w.Name, err)
		}
	}
	return nil
}

// Withdraw deletes the deployment and service, tolerating targets that
// are already gone.
func (w Workload) Withdraw(ctx context.Context, cluster *kube.Client) error {
	cli := cluster.KubeClient
	if err := kube.DeleteDeployment(ctx, w.Name, w.Namespace, cli); err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("error deleting deployment %s: %v", w.Name, err)
	}
	if err := cli.CoreV1().Services(w.Namespace).Delete(ctx, w.Name, metav1.DeleteOptions{}); err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("error deleting service %s: %v", w.Name, err)
	}
	return nil
}

// Cleanup removes the workload namespace entirely. It runs on every
// exit path of a verification run, cancellation included, so it uses
// its own context.
func (w Workload) Cleanup(ctx context.Context, cluster *kube.Client) error {
	return kube.DeleteNamespace(ctx, w.Namespace, cluster.KubeClient)
}
