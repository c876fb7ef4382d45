package service

import (
	"path/filepath"

	"github.com/haatos/simple-qa/internal/types"
	"github.com/haatos/simple-qa/internal/util"
)

type marker func(dir string) bool

func anyFile(names ...string) marker {
	return func(dir string) bool {
		for _, name := range names {
			if ok, _ := util.PathExists(filepath.Join(dir, name)); ok {
				return true
			}
		}
		return false
	}
}

func subdir(name string) marker {
	return func(root string) bool {
		return util.IsDir(filepath.Join(root, name))
	}
}

func fileMentions(name, substr string) marker {
	return func(dir string) bool {
		return util.FileContains(filepath.Join(dir, name), substr)
	}
}

func either(markers ...marker) marker {
	return func(dir string) bool {
		for _, m := range markers {
			if m(dir) {
				return true
			}
		}
		return false
	}
}

type detection struct {
	projectType types.ProjectType
	matches     marker
}

// detections are checked in order; the first match wins.
var detections = []detection{
	{
		types.ProjectPlaywright,
		anyFile("playwright.config.ts", "playwright.config.js", "playwright.config.mjs"),
	},
	{
		types.ProjectCypress,
		either(anyFile("cypress.config.ts", "cypress.config.js"), subdir("cypress")),
	},
	{
		types.ProjectSeleniumPython,
		fileMentions("requirements.txt", "selenium"),
	},
	{
		types.ProjectPytest,
		either(anyFile("pytest.ini", "conftest.py"), fileMentions("pyproject.toml", "pytest")),
	},
	{
		types.ProjectJest,
		either(anyFile("jest.config.js", "jest.config.ts"), fileMentions("package.json", `"jest"`)),
	},
	{
		types.ProjectMocha,
		either(
			anyFile(".mocharc.json", ".mocharc.yml", ".mocharc.js"),
			fileMentions("package.json", `"mocha"`),
		),
	},
	{types.ProjectMaven, anyFile("pom.xml")},
	{types.ProjectGradle, anyFile("build.gradle", "build.gradle.kts")},
	{types.ProjectGenericNode, anyFile("package.json")},
}

// DetectProjectType inspects workspace for marker files. An empty workspace
// path means there is nothing to inspect and selects the demo strategy.
// The workspace must not change while it is inspected.
func DetectProjectType(workspace string) types.ProjectType {
	if workspace == "" {
		return types.ProjectDemo
	}
	for _, d := range detections {
		if d.matches(workspace) {
			return d.projectType
		}
	}
	return types.ProjectUnknown
}
