package config

import (
	"fmt"
	"os"
	"path"

	yaml "gopkg.in/yaml.v3"
)

// RunConfig is the operator-supplied description of one verification
// run: which clusters to verify, where the workload's load balancer
// lives, and the fixed thresholds. The verification core never mutates
// it.
type RunConfig struct {
	// ClusterCfgPath is the directory holding kubeconfig files.
	ClusterCfgPath string `yaml:"clusterCfgPath"`
	// AdminKubeconfig names the admin cluster's kubeconfig inside
	// ClusterCfgPath.
	AdminKubeconfig string `yaml:"adminKubeconfig"`
	// UserKubeconfigs names the user clusters' kubeconfigs.
	UserKubeconfigs []string `yaml:"userKubeconfigs"`

	// LoadBalancerIP is the VIP the sanity service is exposed on.
	LoadBalancerIP string `yaml:"loadBalancerIP"`
	// UpgradeImage is the image the rolling-upgrade check rolls to.
	UpgradeImage string `yaml:"upgradeImage"`
	// ExpectedContent overrides the response marker the HTTP checks
	// match; exact substring, no normalization.
	ExpectedContent string `yaml:"expectedContent"`

	Thresholds Thresholds `yaml:"thresholds"`

	// TestLoops repeats the user-cluster sequence.
	TestLoops int `yaml:"testLoops"`
	// AbortOnFailure stops the whole run at the first fatal verdict.
	AbortOnFailure bool `yaml:"abortOnFailure"`
	// LightMode skips the slow checks (diagnose, node-count change,
	// traffic).
	LightMode bool `yaml:"lightMode"`

	Report ReportConfig `yaml:"report"`
}

// Thresholds carries the fixed polling constants. Counts and budgets
// are operator-supplied; nothing is learned or adapted at runtime.
type Thresholds struct {
	RequiredNodes        int `yaml:"requiredNodes"`
	ExpectedNodes        int `yaml:"expectedNodes"`
	MaxAttempts          int `yaml:"maxAttempts"`
	PollIntervalSeconds  int `yaml:"pollIntervalSeconds"`
	GraceExtensionSeconds int `yaml:"graceExtensionSeconds"`
}

// ReportConfig controls the audit log destination.
type ReportConfig struct {
	LogPrefix string `yaml:"logPrefix"`
	// GCSBucket, when set, receives a copy of the report log.
	GCSBucket string `yaml:"gcsBucket"`
	// ServiceAccount is the key file used for the bucket upload.
	ServiceAccount string `yaml:"serviceAccount"`
	Partner        string `yaml:"partner"`
}

// Load reads a RunConfig from a yaml file and applies defaults.
func Load(file string) (*RunConfig, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("error reading config %s: %v", file, err)
	}
	cfg := &RunConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config %s: %v", file, err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *RunConfig) setDefaults() {
	if c.TestLoops == 0 {
		c.TestLoops = 1
	}
	if c.Report.LogPrefix == "" {
		c.Report.LogPrefix = "gkeonprem.test"
	}
	if c.Thresholds.MaxAttempts == 0 {
		c.Thresholds.MaxAttempts = 60
	}
	if c.Thresholds.PollIntervalSeconds == 0 {
		c.Thresholds.PollIntervalSeconds = 2
	}
	if c.Thresholds.GraceExtensionSeconds == 0 {
		c.Thresholds.GraceExtensionSeconds = 30
	}
}

// Validate checks the caller contract before any polling starts.
func (c *RunConfig) Validate() error {
	if c.ClusterCfgPath == "" {
		return fmt.Errorf("clusterCfgPath is required")
	}
	if c.AdminKubeconfig == "" {
		return fmt.Errorf("adminKubeconfig is required")
	}
	if len(c.UserKubeconfigs) == 0 {
		return fmt.Errorf("at least one user kubeconfig is required")
	}
	if c.LoadBalancerIP == "" {
		return fmt.Errorf("loadBalancerIP is required")
	}
	if c.Thresholds.RequiredNodes > c.Thresholds.ExpectedNodes {
		return fmt.Errorf("requiredNodes (%d) exceeds expectedNodes (%d)",
			c.Thresholds.RequiredNodes, c.Thresholds.ExpectedNodes)
	}
	return nil
}

// AdminKubeconfigFile returns the full path of the admin kubeconfig.
func (c *RunConfig) AdminKubeconfigFile() string {
	return path.Join(c.ClusterCfgPath, c.AdminKubeconfig)
}

// UserKubeconfigFiles returns the full paths of the user kubeconfigs.
func (c *RunConfig) UserKubeconfigFiles() []string {
	files := make([]string, 0, len(c.UserKubeconfigs))
	for _, f := range c.UserKubeconfigs {
		files = append(files, path.Join(c.ClusterCfgPath, f))
	}
	return files
}
