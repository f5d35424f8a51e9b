package probe

// NodeStatus is one entry of a cluster node listing.
type NodeStatus struct {
	Name  string
	Ready bool
}

// NodeList is the result of a single node-listing observation.
type NodeList struct {
	Entries []NodeStatus
}

// ReadyCount returns how many listed nodes report ready.
func (l NodeList) ReadyCount() int {
	ready := 0
	for _, n := range l.Entries {
		if n.Ready {
			ready++
		}
	}
	return ready
}

// HTTPResult is the result of a single HTTP fetch. OK means a response
// with a 2xx status was received; Body is whatever came back.
type HTTPResult struct {
	Body []byte
	OK   bool
}

// PingResult is the result of a single reachability probe. A ping never
// fails with an error; unreachable targets are encoded in the result.
type PingResult struct {
	Reachable bool
}

// RolloutStatus reports whether a deployment rollout has completed.
type RolloutStatus struct {
	Complete bool
}

// DeploymentRef identifies a deployment to observe.
type DeploymentRef struct {
	Namespace string
	Name      string
}

func (r DeploymentRef) String() string {
	return r.Namespace + "/" + r.Name
}
