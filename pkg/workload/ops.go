package workload

import (
	"context"

	"github.com/minzhuogoogle/gke-on-prem/pkg/kube"
	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
)

// Ops adapts a cluster client to the narrow mutation and counting
// capabilities the verification core consumes.
type Ops struct {
	Cluster *kube.Client
}

func (o Ops) SetImage(ctx context.Context, ref probe.DeploymentRef, image string) error {
	return kube.SetDeploymentImage(ctx, ref.Name, ref.Namespace, "", image, o.Cluster.KubeClient)
}

func (o Ops) Scale(ctx context.Context, ref probe.DeploymentRef, replicas int32) error {
	return kube.ScaleDeployment(ctx, ref.Name, ref.Namespace, replicas, o.Cluster.KubeClient)
}

func (o Ops) ReadyReplicas(ctx context.Context, ref probe.DeploymentRef) (int, error) {
	ready, _, err := kube.ReadyReplicas(ctx, ref.Name, ref.Namespace, o.Cluster.KubeClient)
	return int(ready), err
}
