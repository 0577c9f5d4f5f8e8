// Package config implements the Config/Language Table surface (spec §6,
// component C8's configuration half): plain, YAML-loadable structs for
// everything a host process needs to wire up a judge core instance — the
// sandbox endpoint, concurrency cap, default resource limits, the language
// table, and the builtin asset pool definitions.
//
// Grounded on `internal/cli/config.Load`'s shape (yaml tags, one Unmarshal
// call, post-load defaulting) rather than the service configs' go-zero
// `rest.RestConf`/`conf.MustLoad` pipeline, since this package only owns
// config *parsing* — not the env/flag/TOML layering a host process builds
// on top, which spec.md's Non-goals leave to the deployment.
package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"judgecore/internal/langtable"
	"judgecore/internal/sandboxclient"
	judgeerr "judgecore/pkg/errors"
)

// LanguageConfig is one language table entry, unmarshalled from a single
// command-line string per argv slot (shlex-split by langtable.ParseArgv)
// rather than a pre-tokenized list, matching how a human edits a YAML file.
type LanguageConfig struct {
	Name       string `yaml:"name"`
	CompileCmd string `yaml:"compileCmd"`
	RunCmd     string `yaml:"runCmd"`
	SourceFile string `yaml:"sourceFile"`
	ExecFile   string `yaml:"execFile"`
}

// Spec parses CompileCmd/RunCmd into argv templates and returns the
// langtable.Spec this entry describes.
func (l LanguageConfig) Spec() (langtable.Spec, error) {
	spec := langtable.Spec{
		Name:       l.Name,
		SourceFile: l.SourceFile,
		ExecFile:   l.ExecFile,
	}
	if l.CompileCmd != "" {
		argv, err := langtable.ParseArgv(l.CompileCmd)
		if err != nil {
			return langtable.Spec{}, err
		}
		spec.CompileArgv = argv
	}
	argv, err := langtable.ParseArgv(l.RunCmd)
	if err != nil {
		return langtable.Spec{}, err
	}
	spec.RunArgv = argv
	return spec, nil
}

// LimitsConfig is the default resource envelope applied to every sandbox
// command before a primitive's own overrides, mirroring
// sandboxclient.DefaultLimits field-for-field.
type LimitsConfig struct {
	Env         []string      `yaml:"env"`
	TimeLimit   time.Duration `yaml:"timeLimit"`
	MemoryLimit uint64        `yaml:"memoryLimit"`
	ProcLimit   uint64        `yaml:"procLimit"`
	StdoutLimit int64         `yaml:"stdoutLimit"`
	StderrLimit int64         `yaml:"stderrLimit"`
}

// Limits converts to sandboxclient.DefaultLimits.
func (l LimitsConfig) Limits() sandboxclient.DefaultLimits {
	return sandboxclient.DefaultLimits{
		Env:         l.Env,
		TimeLimit:   l.TimeLimit,
		MemoryLimit: l.MemoryLimit,
		ProcLimit:   l.ProcLimit,
		StdoutLimit: l.StdoutLimit,
		StderrLimit: l.StderrLimit,
	}
}

// SandboxConfig names the sandbox RPC endpoint and its concurrency cap
// (spec §6's "Sandbox RPC" / §5's max_job).
type SandboxConfig struct {
	BaseURL string `yaml:"baseURL"`
	MaxJob  int64  `yaml:"maxJob"`
}

// AssetPoolConfig names one builtin asset pool backend. Exactly one of
// FSRoot or the MinIO fields should be set; FSRoot selects an
// assets.FSPool rooted at a host directory, the MinIO fields select an
// object-storage-backed pool for pools too large to embed.
type AssetPoolConfig struct {
	Name      string `yaml:"name"`
	FSRoot    string `yaml:"fsRoot"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Config is the full configuration surface named in spec §6: language
// table, sandbox host, concurrency cap, default limits, and asset pools.
type Config struct {
	Sandbox   SandboxConfig     `yaml:"sandbox"`
	Limits    LimitsConfig      `yaml:"limits"`
	Languages []LanguageConfig  `yaml:"languages"`
	Pools     []AssetPoolConfig `yaml:"pools"`
}

// LoadConfig parses YAML bytes into a Config and applies defaults for any
// zero-valued fields a deployment omitted.
func LoadConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, judgeerr.Wrapf(err, judgeerr.InvalidParams, "parse config")
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Sandbox.MaxJob == 0 {
		cfg.Sandbox.MaxJob = 4
	}
	if cfg.Limits.TimeLimit == 0 {
		cfg.Limits.TimeLimit = 10 * time.Second
	}
	if cfg.Limits.MemoryLimit == 0 {
		cfg.Limits.MemoryLimit = 256 << 20
	}
	if cfg.Limits.ProcLimit == 0 {
		cfg.Limits.ProcLimit = 1
	}
	if cfg.Limits.StdoutLimit == 0 {
		cfg.Limits.StdoutLimit = 64 << 20
	}
	if cfg.Limits.StderrLimit == 0 {
		cfg.Limits.StderrLimit = 1 << 20
	}
}

// LanguageTable builds a langtable.Table from every entry in cfg.Languages.
func (cfg Config) LanguageTable() (*langtable.Table, error) {
	specs := make([]langtable.Spec, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		spec, err := l.Spec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return langtable.NewTable(specs...), nil
}
