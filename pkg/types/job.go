package types

// Job represents a scheduled job configuration
type Job struct {
	Name        string `json:"name" yaml:"name"`
	Schedule    string `json:"schedule" yaml:"schedule"`
	TaskName    string `json:"task" yaml:"task"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Description string `json:"description" yaml:"description"`
}

// JobConfig represents the job scheduler configuration
type JobConfig struct {
	MaxConcurrent int   `json:"max_concurrent" yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	Predefined    []Job `json:"predefined" yaml:"predefined" envPrefix:"PREDEFINED_"`
}
