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
	"fmt"

	"k8s.io/client-go/kubernetes"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client bundles the typed clientset and rest config for one cluster,
// identified by its kubeconfig file.
type Client struct {
	Kubeconfig string
	KubeClient kubernetes.Interface
	RestConfig *restclient.Config
}

// NewClient builds a cluster client from a kubeconfig file.
func NewClient(kubeconfig string) (*Client, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("error loading kubeconfig %s: %v", kubeconfig, err)
	}
	cli, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("error creating kubernetes client: %v", err)
	}
	return &Client{
		Kubeconfig: kubeconfig,
		KubeClient: cli,
		RestConfig: config,
	}, nil
}

// NewClientFor wraps an existing clientset. Used by tests with the fake
// clientset and by callers that build their own rest config.
func NewClientFor(cli kubernetes.Interface) *Client {
	return &Client{KubeClient: cli}
}

// ServerHost returns the API server host from the rest config, or an
// empty string when the client was built without one.
func (c *Client) ServerHost() string {
	if c.RestConfig == nil {
		return ""
	}
	return c.RestConfig.Host
}
