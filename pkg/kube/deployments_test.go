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
	"testing"

	"gotest.tools/assert"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func newDeployment(name, namespace string, replicas int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{Name: "nginx", Image: "nginx:1.7.9"},
					},
				},
			},
		},
	}
}

func TestScaleDeployment(t *testing.T) {
	ctx := context.Background()
	cli := fake.NewSimpleClientset(newDeployment("web", "test-ns", 3))

	err := ScaleDeployment(ctx, "web", "test-ns", 6, cli)
	assert.Assert(t, err == nil)

	dep, err := GetDeployment(ctx, "web", "test-ns", cli)
	assert.Assert(t, err == nil)
	assert.Equal(t, int32(6), *dep.Spec.Replicas)

	err = ScaleDeployment(ctx, "missing", "test-ns", 6, cli)
	assert.Assert(t, err != nil)
}

func TestSetDeploymentImage(t *testing.T) {
	ctx := context.Background()
	cli := fake.NewSimpleClientset(newDeployment("web", "test-ns", 3))

	err := SetDeploymentImage(ctx, "web", "test-ns", "nginx", "nginx:1.9.1", cli)
	assert.Assert(t, err == nil)

	dep, err := GetDeployment(ctx, "web", "test-ns", cli)
	assert.Assert(t, err == nil)
	assert.Equal(t, "nginx:1.9.1", dep.Spec.Template.Spec.Containers[0].Image)

	// Empty container name targets the first container.
	err = SetDeploymentImage(ctx, "web", "test-ns", "", "nginx:1.9.2", cli)
	assert.Assert(t, err == nil)
	dep, _ = GetDeployment(ctx, "web", "test-ns", cli)
	assert.Equal(t, "nginx:1.9.2", dep.Spec.Template.Spec.Containers[0].Image)

	err = SetDeploymentImage(ctx, "web", "test-ns", "sidecar", "nginx:1.9.1", cli)
	assert.Error(t, err, "container sidecar not found in deployment test-ns/web")
}

func TestRolloutComplete(t *testing.T) {
	replicas := int32(3)

	type test struct {
		name     string
		dep      *appsv1.Deployment
		expected bool
	}

	testTable := []test{
		{
			name: "complete",
			dep: &appsv1.Deployment{
				ObjectMeta: metav1.ObjectMeta{Generation: 2},
				Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
				Status: appsv1.DeploymentStatus{
					ObservedGeneration: 2,
					UpdatedReplicas:    3,
					Replicas:           3,
					AvailableReplicas:  3,
				},
			},
			expected: true,
		}, {
			name: "generation-not-observed",
			dep: &appsv1.Deployment{
				ObjectMeta: metav1.ObjectMeta{Generation: 3},
				Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
				Status: appsv1.DeploymentStatus{
					ObservedGeneration: 2,
					UpdatedReplicas:    3,
					Replicas:           3,
					AvailableReplicas:  3,
				},
			},
			expected: false,
		}, {
			name: "old-replicas-still-terminating",
			dep: &appsv1.Deployment{
				ObjectMeta: metav1.ObjectMeta{Generation: 2},
				Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
				Status: appsv1.DeploymentStatus{
					ObservedGeneration: 2,
					UpdatedReplicas:    3,
					Replicas:           4,
					AvailableReplicas:  3,
				},
			},
			expected: false,
		}, {
			name: "not-all-available",
			dep: &appsv1.Deployment{
				ObjectMeta: metav1.ObjectMeta{Generation: 2},
				Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
				Status: appsv1.DeploymentStatus{
					ObservedGeneration: 2,
					UpdatedReplicas:    3,
					Replicas:           3,
					AvailableReplicas:  2,
				},
			},
			expected: false,
		}, {
			name:     "no-replica-spec",
			dep:      &appsv1.Deployment{},
			expected: false,
		},
	}

	for _, item := range testTable {
		t.Run(item.name, func(t *testing.T) {
			assert.Equal(t, item.expected, RolloutComplete(item.dep))
		})
	}
}

func TestReadyReplicas(t *testing.T) {
	ctx := context.Background()
	dep := newDeployment("web", "test-ns", 3)
	dep.Status.ReadyReplicas = 2
	cli := fake.NewSimpleClientset(dep)

	ready, found, err := ReadyReplicas(ctx, "web", "test-ns", cli)
	assert.Assert(t, err == nil)
	assert.Assert(t, found)
	assert.Equal(t, int32(2), ready)

	_, found, err = ReadyReplicas(ctx, "missing", "test-ns", cli)
	assert.Assert(t, err != nil)
	assert.Assert(t, !found)
}

func TestDeleteDeployment(t *testing.T) {
	ctx := context.Background()
	cli := fake.NewSimpleClientset(newDeployment("web", "test-ns", 3))

	err := DeleteDeployment(ctx, "web", "test-ns", cli)
	assert.Assert(t, err == nil)

	_, err = GetDeployment(ctx, "web", "test-ns", cli)
	assert.Assert(t, err != nil)

	err = DeleteDeployment(ctx, "web", "test-ns", cli)
	assert.Assert(t, err != nil)
}
