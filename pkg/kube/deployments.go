/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package kube

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

func GetDeployment(ctx context.Context, name string, namespace string, cli kubernetes.Interface) (*appsv1.Deployment, error) {
	return cli.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
}

func DeleteDeployment(ctx context.Context, name string, namespace string, cli kubernetes.Interface) error {
	_, err := cli.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		err = cli.AppsV1().Deployments(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	}
	return err
}

// ScaleDeployment sets the replica count of an existing deployment.
func ScaleDeployment(ctx context.Context, name string, namespace string, replicas int32, cli kubernetes.Interface) error {
	deployments := cli.AppsV1().Deployments(namespace)
	dep, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return err
	}
	dep.Spec.Replicas = &replicas
	_, err = deployments.Update(ctx, dep, metav1.UpdateOptions{})
	return err
}

// SetDeploymentImage updates the image of the named container, or of the
// first container when containerName is empty. This is what triggers a
// rolling upgrade of the workload.
func SetDeploymentImage(ctx context.Context, name string, namespace string, containerName string, image string, cli kubernetes.Interface) error {
	deployments := cli.AppsV1().Deployments(namespace)
	dep, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return err
	}
	if len(dep.Spec.Template.Spec.Containers) == 0 {
		return fmt.Errorf("deployment %s/%s has no containers", namespace, name)
	}
	updated := false
	for i, c := range dep.Spec.Template.Spec.Containers {
		if containerName == "" || c.Name == containerName {
			dep.Spec.Template.Spec.Containers[i].Image = image
			updated = true
			break
		}
	}
	if !updated {
		return fmt.Errorf("container %s not found in deployment %s/%s", containerName, namespace, name)
	}
	_, err = deployments.Update(ctx, dep, metav1.UpdateOptions{})
	return err
}

// RolloutComplete applies the kubectl rollout-status conditions: the
// controller has observed the latest generation and all replicas are
// updated and available.
func RolloutComplete(dep *appsv1.Deployment) bool {
	if dep.Spec.Replicas == nil {
		return false
	}
	replicas := *dep.Spec.Replicas
	return dep.Generation <= dep.Status.ObservedGeneration &&
		dep.Status.UpdatedReplicas == replicas &&
		dep.Status.Replicas == replicas &&
		dep.Status.AvailableReplicas == replicas
}

// ReadyReplicas returns the ready replica count for a deployment, with
// found=false when the deployment does not exist.
func ReadyReplicas(ctx context.Context, name string, namespace string, cli kubernetes.Interface) (int32, bool, error) {
	dep, err := cli.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return 0, false, err
	}
	return dep.Status.ReadyReplicas, true, nil
}
