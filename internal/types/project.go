package types

// ProjectType is the tag the detector assigns to a workspace. Each tag
// selects one execution strategy.
type ProjectType string

const (
	ProjectPlaywright     ProjectType = "playwright"
	ProjectCypress        ProjectType = "cypress"
	ProjectSeleniumPython ProjectType = "selenium-python"
	ProjectPytest         ProjectType = "pytest"
	ProjectJest           ProjectType = "jest"
	ProjectMocha          ProjectType = "mocha"
	ProjectMaven          ProjectType = "maven"
	ProjectGradle         ProjectType = "gradle"
	ProjectGenericNode    ProjectType = "generic-node"
	ProjectUnknown        ProjectType = "unknown"

	ProjectGeneric ProjectType = "generic"
	ProjectDemo    ProjectType = "demo"
)

// TestRunScript is the optional .simpleqa.yml override in a repository.
type TestRunScript struct {
	Install string `yaml:"install"`
	Test    string `yaml:"test"`
}
