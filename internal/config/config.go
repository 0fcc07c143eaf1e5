package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fr0stylo/shipbot/pkg/shipbot"
)

type Config struct {
	APIKey        string
	APIHost       string
	FailureMode   shipbot.FailureMode
	LogLevel      string
	DryRun        bool
	Report        shipbot.Input
	Policy        shipbot.CreatePolicy
	Workspace     WorkspaceConfig
	Events        EventsConfig
	Observability ObservabilityConfig
}

type WorkspaceConfig struct {
	Root string
	// OutputPath is the step output file. Empty means the deployment id is only logged.
	OutputPath string
}

type EventsConfig struct {
	File   string
	Source string
}

type ObservabilityConfig struct {
	Enabled      bool
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	ServiceName  string
}

// flagKeys maps command-line flags onto the environment keys they override.
var flagKeys = map[string]string{
	"api-host":     "shipbot_api_host",
	"failure-mode": "shipbot_failure_mode",
	"log-level":    "shipbot_log_level",
	"dry-run":      "shipbot_dry_run",
}

func Load() (Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags loads config from the environment, letting explicitly set flags win.
func LoadWithFlags(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("shipbot_api_key", "")
	v.SetDefault("shipbot_api_host", shipbot.DefaultHost)
	v.SetDefault("shipbot_failure_mode", string(shipbot.FailureHard))
	v.SetDefault("shipbot_log_level", "INFO")
	v.SetDefault("shipbot_dry_run", false)
	v.SetDefault("shipbot_type", shipbot.DefaultType)
	v.SetDefault("shipbot_required_fields", "")
	v.SetDefault("shipbot_artifact_source", "")
	v.SetDefault("github_workspace", ".")
	v.SetDefault("github_output", "")
	v.SetDefault("shipbot_cdevent_file", "")
	v.SetDefault("shipbot_cdevent_source", "ci/pipeline")
	v.SetDefault("shipbot_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_service_name", "shipbot")

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	requiredFields, err := parseRequiredFields(v.GetString("shipbot_required_fields"))
	if err != nil {
		return Config{}, err
	}
	artifactSource, err := parseArtifactSource(v.GetString("shipbot_artifact_source"))
	if err != nil {
		return Config{}, err
	}

	commitSHA := strings.TrimSpace(v.GetString("shipbot_commit_sha"))
	if commitSHA == "" {
		commitSHA = strings.TrimSpace(v.GetString("shipbot_commitsha"))
	}

	workspace := strings.TrimSpace(v.GetString("github_workspace"))
	if workspace == "" {
		workspace = "."
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = "shipbot"
	}
	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))

	cfg := Config{
		APIKey:      strings.TrimSpace(v.GetString("shipbot_api_key")),
		APIHost:     strings.TrimSpace(v.GetString("shipbot_api_host")),
		FailureMode: shipbot.ParseFailureMode(v.GetString("shipbot_failure_mode")),
		LogLevel:    strings.TrimSpace(v.GetString("shipbot_log_level")),
		DryRun:      v.GetBool("shipbot_dry_run"),
		Report: shipbot.Input{
			DeploymentID:   strings.TrimSpace(v.GetString("shipbot_deployment_id")),
			Status:         strings.TrimSpace(v.GetString("shipbot_status")),
			Version:        strings.TrimSpace(v.GetString("shipbot_version")),
			Environment:    strings.TrimSpace(v.GetString("shipbot_environment")),
			Type:           strings.TrimSpace(v.GetString("shipbot_type")),
			ArtifactID:     strings.TrimSpace(v.GetString("shipbot_artifact_id")),
			ArtifactConfig: strings.TrimSpace(v.GetString("shipbot_artifact_config")),
			ArtifactName:   strings.TrimSpace(v.GetString("shipbot_artifact_name")),
			Changelog:      strings.TrimSpace(v.GetString("shipbot_change_log")),
			CommitSHA:      commitSHA,
			Description:    strings.TrimSpace(v.GetString("shipbot_description")),
			Link:           strings.TrimSpace(v.GetString("shipbot_link")),
			User:           strings.TrimSpace(v.GetString("shipbot_user")),
			Branch:         strings.TrimSpace(v.GetString("shipbot_branch")),
		},
		Policy: shipbot.CreatePolicy{
			RequiredFields: requiredFields,
			ArtifactSource: artifactSource,
		},
		Workspace: WorkspaceConfig{
			Root:       workspace,
			OutputPath: strings.TrimSpace(v.GetString("github_output")),
		},
		Events: EventsConfig{
			File:   strings.TrimSpace(v.GetString("shipbot_cdevent_file")),
			Source: strings.TrimSpace(v.GetString("shipbot_cdevent_source")),
		},
		Observability: ObservabilityConfig{
			Enabled:      v.GetBool("shipbot_otel_enabled") || otlpEndpoint != "",
			OTLPEndpoint: otlpEndpoint,
			OTLPHeaders:  parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers")),
			ServiceName:  serviceName,
		},
	}

	if cfg.APIHost == "" {
		cfg.APIHost = shipbot.DefaultHost
	}
	if cfg.APIKey == "" && !cfg.DryRun {
		return Config{}, &shipbot.ValidationError{Field: "SHIPBOT_API_KEY", Message: "is required"}
	}

	return cfg, nil
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing default file is not an error.
func LoadEnvFile(path string, explicit bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func parseRequiredFields(raw string) ([]string, error) {
	fields := lo.Uniq(lo.Compact(lo.Map(strings.Split(raw, ","), func(field string, _ int) string {
		return strings.TrimSpace(field)
	})))
	if len(fields) == 0 {
		return nil, nil
	}
	supported := shipbot.RequirableFields()
	if unknown := lo.Without(fields, supported...); len(unknown) > 0 {
		return nil, &shipbot.ValidationError{
			Field:   "SHIPBOT_REQUIRED_FIELDS",
			Message: fmt.Sprintf("names unsupported fields %s (supported: %s)", strings.Join(unknown, ", "), strings.Join(supported, ", ")),
		}
	}
	return fields, nil
}

func parseArtifactSource(raw string) (shipbot.ArtifactSource, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return shipbot.ArtifactAuto, nil
	case string(shipbot.ArtifactDirect):
		return shipbot.ArtifactDirect, nil
	case string(shipbot.ArtifactFile):
		return shipbot.ArtifactFile, nil
	default:
		return "", &shipbot.ValidationError{
			Field:   "SHIPBOT_ARTIFACT_SOURCE",
			Message: fmt.Sprintf("must be one of auto, direct, file (got %q)", raw),
		}
	}
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
