package shipbot

import (
	"net/http"

	"github.com/go-git/go-billy/v5"
)

const (
	DefaultHost = "https://api.shipbot.io"
	DefaultType = "STANDARD"

	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"

	APIKeyHeader = "X-Api-Key"
)

// Mode is the operation a request performs against the deployment API.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Input holds the resolved configuration values a report is built from.
type Input struct {
	DeploymentID   string
	Status         string
	Version        string
	Environment    string
	Type           string
	ArtifactID     string
	ArtifactConfig string
	ArtifactName   string
	Changelog      string
	CommitSHA      string
	Description    string
	Link           string
	User           string
	Branch         string
}

// DeploymentReport is the create payload. Field order is the wire order.
type DeploymentReport struct {
	Version      string `json:"version"`
	Environment  string `json:"environment"`
	Type         string `json:"type"`
	ArtifactID   string `json:"artifactId,omitempty"`
	ArtifactName string `json:"artifactName,omitempty"`
	Status       string `json:"status,omitempty"`
	Changelog    string `json:"changelog,omitempty"`
	CommitSHA    string `json:"commitSha,omitempty"`
	Description  string `json:"description,omitempty"`
	Link         string `json:"link,omitempty"`
	User         string `json:"user,omitempty"`
	Branch       string `json:"branch,omitempty"`
}

// DeploymentUpdate is the status patch sent for an existing deployment.
type DeploymentUpdate struct {
	Status string `json:"status"`
}

// Request is a fully built API call. Payload keeps the typed body for diagnostics.
type Request struct {
	Mode         Mode
	DeploymentID string
	Method       string
	URL          string
	Header       http.Header
	Body         []byte
	Payload      any
}

// ArtifactSource selects how the create payload's artifactId is resolved.
type ArtifactSource string

const (
	// ArtifactAuto reads the artifact config file when one is named, else the direct value.
	ArtifactAuto   ArtifactSource = ""
	ArtifactDirect ArtifactSource = "direct"
	ArtifactFile   ArtifactSource = "file"
)

// CreatePolicy describes which fields a create report must carry.
type CreatePolicy struct {
	// RequiredFields lists payload fields, beyond version and environment,
	// that must be present. Accepted: artifactId, commitSha, user, branch.
	RequiredFields []string
	ArtifactSource ArtifactSource
}

// Builder turns an Input into a Request.
type Builder struct {
	Host   string
	APIKey string
	Policy CreatePolicy
	// Files is the workspace the artifact config path is resolved against.
	Files billy.Basic
}
