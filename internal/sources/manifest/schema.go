package manifest

// File is the top-level structure of the service manifest.
type File struct {
	Services []ServiceEntry `yaml:"services"`
}

// ServiceEntry is one declared service as written in the manifest.
type ServiceEntry struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	HealthPath string            `yaml:"healthPath,omitempty"`
	Kind       string            `yaml:"kind,omitempty"` // "http" (default) or "broker"
	Meta       map[string]string `yaml:"meta,omitempty"`
}
