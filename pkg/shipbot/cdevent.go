package shipbot

import (
	"fmt"
	"strings"

	cdeventsapi "github.com/cdevents/sdk-go/pkg/api"
	cdeventsv05 "github.com/cdevents/sdk-go/pkg/api/v05"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const defaultEventSource = "ci/pipeline"

// CDEventExporter writes a CDEvents service.deployed event mirroring a created report.
type CDEventExporter struct {
	Source string
	Files  billy.Basic
	Path   string
}

func (e CDEventExporter) ExportDeployment(report DeploymentReport) error {
	body, _, err := BuildDeployedEvent(report, e.Source)
	if err != nil {
		return err
	}
	if e.Files == nil || strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("cdevent export target is not configured")
	}
	if err := util.WriteFile(e.Files, e.Path, body, 0o644); err != nil {
		return fmt.Errorf("write cdevent: %w", err)
	}
	return nil
}

// BuildDeployedEvent renders report as a CDEvents service.deployed event and
// returns the body with the resolved event type.
func BuildDeployedEvent(report DeploymentReport, source string) ([]byte, string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		source = defaultEventSource
	}
	environment := strings.TrimSpace(report.Environment)
	if environment == "" {
		return nil, "", fmt.Errorf("environment is required for service events")
	}

	service := firstNonEmpty(report.ArtifactName, report.ArtifactID, environment)
	e, err := cdeventsv05.NewServiceDeployedEvent()
	if err != nil {
		return nil, "", err
	}
	e.SetSource(source)
	e.SetSubjectId("service/" + service)
	e.SetSubjectEnvironment(&cdeventsapi.Reference{Id: environment})
	e.SetSubjectArtifactId(fmt.Sprintf("pkg:generic/%s@%s", service, strings.TrimSpace(report.Version)))

	body, err := cdeventsapi.AsJsonBytes(e)
	if err != nil {
		return nil, "", err
	}
	return body, cdeventsv05.ServiceDeployedEventType.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
