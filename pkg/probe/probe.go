// Package probe issues single external observations against a cluster
// and its load-balanced workload. Each call performs exactly one
// command or network request and translates the outcome into a typed
// observation or a transport-level Error; retrying is the polling
// layer's concern, never this package's.
package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/minzhuogoogle/gke-on-prem/pkg/kube"
	"github.com/minzhuogoogle/gke-on-prem/pkg/network"
)

// Probe is the observation surface consumed by the verification core.
type Probe interface {
	ListNodes(ctx context.Context) (NodeList, error)
	FetchHTTP(ctx context.Context, url string) (HTTPResult, error)
	Ping(ctx context.Context, address string) PingResult
	RolloutStatus(ctx context.Context, ref DeploymentRef) (RolloutStatus, error)
}

// DefaultTimeout bounds a single observation so that cancelling a
// verification run never waits longer than one probe.
const DefaultTimeout = 15 * time.Second

type clusterProbe struct {
	cluster *kube.Client
	net     network.Prober
	timeout time.Duration
}

// New returns a Probe over the given cluster client and network prober.
func New(cluster *kube.Client, prober network.Prober) Probe {
	return &clusterProbe{
		cluster: cluster,
		net:     prober,
		timeout: DefaultTimeout,
	}
}

func (p *clusterProbe) ListNodes(ctx context.Context) (NodeList, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	nodes, err := kube.GetNodes(ctx, p.cluster.KubeClient)
	if err != nil {
		return NodeList{}, newError(KindUnreachable, "list nodes", err)
	}
	list := NodeList{Entries: make([]NodeStatus, 0, len(nodes))}
	for i := range nodes {
		list.Entries = append(list.Entries, NodeStatus{
			Name:  nodes[i].Name,
			Ready: kube.IsNodeReady(&nodes[i]),
		})
	}
	return list, nil
}

func (p *clusterProbe) FetchHTTP(ctx context.Context, url string) (HTTPResult, error) {
	resp, err := p.net.HTTPGet(ctx, url, p.timeout)
	if err != nil {
		if resp != nil {
			return HTTPResult{}, newError(KindMalformedOutput, "fetch "+url, err)
		}
		if isTimeout(err) {
			return HTTPResult{}, newError(KindTimeout, "fetch "+url, err)
		}
		return HTTPResult{}, newError(KindConnectionRefused, "fetch "+url, err)
	}
	return HTTPResult{
		Body: resp.Body,
		OK:   resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}

func (p *clusterProbe) Ping(ctx context.Context, address string) PingResult {
	return PingResult{Reachable: p.net.Ping(ctx, address, p.timeout)}
}

func (p *clusterProbe) RolloutStatus(ctx context.Context, ref DeploymentRef) (RolloutStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	dep, err := kube.GetDeployment(ctx, ref.Name, ref.Namespace, p.cluster.KubeClient)
	if err != nil {
		return RolloutStatus{}, newError(KindUnreachable, "rollout status "+ref.String(), err)
	}
	return RolloutStatus{Complete: kube.RolloutComplete(dep)}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
