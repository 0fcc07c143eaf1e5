package shipbot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/samber/lo"
)

const (
	artifactConfigField = "SHIPBOT_ARTIFACT_CONFIG"
	artifactIDKey       = "artifactId"
)

var requirableFields = map[string]string{
	"artifactId": "SHIPBOT_ARTIFACT_ID",
	"commitSha":  "SHIPBOT_COMMIT_SHA",
	"user":       "SHIPBOT_USER",
	"branch":     "SHIPBOT_BRANCH",
}

// RequirableFields lists the payload fields a CreatePolicy may make mandatory.
func RequirableFields() []string {
	fields := lo.Keys(requirableFields)
	sort.Strings(fields)
	return fields
}

// Build selects create or update mode and validates the fields that mode needs.
// Validation failures wrap ErrValidation.
func (b Builder) Build(in Input) (Request, error) {
	if id := strings.TrimSpace(in.DeploymentID); id != "" {
		return b.buildUpdate(id, in)
	}
	return b.buildCreate(in)
}

func (b Builder) buildUpdate(id string, in Input) (Request, error) {
	status := strings.TrimSpace(in.Status)
	if !lo.Contains([]string{StatusSucceeded, StatusFailed}, status) {
		return Request{}, &ValidationError{
			Field:   "SHIPBOT_STATUS",
			Message: fmt.Sprintf("must be either %s or %s when updating a deployment", StatusSucceeded, StatusFailed),
		}
	}
	return b.request(ModeUpdate, id, http.MethodPatch, "/deployment/"+url.PathEscape(id), DeploymentUpdate{Status: status})
}

func (b Builder) buildCreate(in Input) (Request, error) {
	if blank(in.Version) {
		return Request{}, missing("SHIPBOT_VERSION", ModeCreate)
	}
	if blank(in.Environment) {
		return Request{}, missing("SHIPBOT_ENVIRONMENT", ModeCreate)
	}

	artifactID, err := b.resolveArtifactID(in)
	if err != nil {
		return Request{}, err
	}

	report := DeploymentReport{
		Version:      in.Version,
		Environment:  in.Environment,
		Type:         lo.Ternary(blank(in.Type), DefaultType, in.Type),
		ArtifactID:   artifactID,
		ArtifactName: optional(in.ArtifactName),
		Status:       optional(in.Status),
		Changelog:    optional(in.Changelog),
		CommitSHA:    optional(in.CommitSHA),
		Description:  optional(in.Description),
		Link:         optional(in.Link),
		User:         optional(in.User),
		Branch:       optional(in.Branch),
	}
	if err := b.Policy.check(report); err != nil {
		return Request{}, err
	}
	return b.request(ModeCreate, "", http.MethodPost, "/deployment", report)
}

func (p CreatePolicy) check(report DeploymentReport) error {
	for _, field := range p.RequiredFields {
		var value string
		switch field {
		case "artifactId":
			value = report.ArtifactID
		case "commitSha":
			value = report.CommitSHA
		case "user":
			value = report.User
		case "branch":
			value = report.Branch
		default:
			return &ValidationError{
				Field:   "SHIPBOT_REQUIRED_FIELDS",
				Message: fmt.Sprintf("names unsupported field %q (supported: %s)", field, strings.Join(RequirableFields(), ", ")),
			}
		}
		if value == "" {
			return missing(requirableFields[field], ModeCreate)
		}
	}
	return nil
}

func (b Builder) resolveArtifactID(in Input) (string, error) {
	switch b.Policy.ArtifactSource {
	case ArtifactDirect:
		return optional(in.ArtifactID), nil
	case ArtifactFile:
		return b.readArtifactConfig(in.ArtifactConfig)
	case ArtifactAuto:
		if blank(in.ArtifactConfig) {
			return optional(in.ArtifactID), nil
		}
		return b.readArtifactConfig(in.ArtifactConfig)
	default:
		return "", &ValidationError{
			Field:   "SHIPBOT_ARTIFACT_SOURCE",
			Message: fmt.Sprintf("unsupported artifact source %q", b.Policy.ArtifactSource),
		}
	}
}

// readArtifactConfig loads artifactId from a JSON file relative to the workspace.
func (b Builder) readArtifactConfig(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", missing(artifactConfigField, ModeCreate)
	}

	files := b.Files
	if files == nil {
		files = osfs.New(".")
	}
	raw, err := util.ReadFile(files, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &ValidationError{Field: artifactConfigField, Message: fmt.Sprintf("file not found: %s", path)}
		}
		return "", &ValidationError{Field: artifactConfigField, Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", &ValidationError{Field: artifactConfigField, Message: fmt.Sprintf("contains invalid JSON: %s", path)}
	}
	value, ok := doc[artifactIDKey]
	if !ok {
		return "", &ValidationError{Field: artifactConfigField, Message: fmt.Sprintf("has no %s key: %s", artifactIDKey, path)}
	}
	id, ok := value.(string)
	if !ok || blank(id) {
		return "", &ValidationError{Field: artifactConfigField, Message: fmt.Sprintf("%s must be a non-empty string: %s", artifactIDKey, path)}
	}
	return id, nil
}

func (b Builder) request(mode Mode, id, method, path string, payload any) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("encode payload: %w", err)
	}

	host := strings.TrimSpace(b.Host)
	if host == "" {
		host = DefaultHost
	}

	header := make(http.Header)
	header.Set(APIKeyHeader, b.APIKey)
	header.Set("Content-Type", "application/json")

	return Request{
		Mode:         mode,
		DeploymentID: id,
		Method:       method,
		URL:          strings.TrimRight(host, "/") + path,
		Header:       header,
		Body:         body,
		Payload:      payload,
	}, nil
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}

func optional(value string) string {
	if blank(value) {
		return ""
	}
	return value
}
