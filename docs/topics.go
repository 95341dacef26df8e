// Package docs holds the user documentation of cbk, one markdown file per topic.
package docs

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed *.md
var files embed.FS

// Readme is the topic listing all the others.
const Readme = "readme"

// Topic returns the markdown content of a topic.
func Topic(name string) (string, error) {
	content, err := files.ReadFile(name + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found, see 'cbk topic' for the list of topics", name)
	}
	return string(content), nil
}

// Topics returns the content of the topics, one after the other. "*" stands
// for all the topics.
func Topics(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		expanded := []string{name}
		if name == "*" {
			expanded = All()
		}
		for _, n := range expanded {
			content, err := Topic(n)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// All returns the sorted names of the topics, except the readme.
func All() []string {
	var names []string
	entries, _ := fs.ReadDir(files, ".")
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if e.IsDir() || name == Readme {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
