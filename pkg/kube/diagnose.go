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
	"os/exec"
)

// GkectlRunner runs the platform diagnose command against one cluster.
// It shells out the way an operator would; the command and its output
// format belong to the platform tooling, not to this module.
type GkectlRunner struct {
	Kubeconfig string
}

// Diagnose executes one diagnose run and returns the combined output.
// The exit status is folded into the returned error; callers match the
// healthy marker in the output rather than trusting the code alone.
func (r *GkectlRunner) Diagnose(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "gkectl", "diagnose", "cluster", "--kubeconfig", r.Kubeconfig)
	output, err := cmd.CombinedOutput()
	return string(output), err
}
