package registry

// VariantConfig describes one model variant the orchestrator can route a
// request to. Variants live as YAML files so operators can repoint providers
// without a rebuild.
type VariantConfig struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Provider    string `yaml:"provider" json:"provider"`
	Model       string `yaml:"model" json:"model"`
	BaseURL     string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`
	CostTier    string `yaml:"cost_tier,omitempty" json:"cost_tier,omitempty"`
	QualityTier string `yaml:"quality_tier,omitempty" json:"quality_tier,omitempty"`
	MaxTokens   int    `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Notes       string `yaml:"notes,omitempty" json:"notes,omitempty"`
}
