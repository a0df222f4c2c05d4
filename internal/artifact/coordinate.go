// Package artifact provides the coordinate-addressed store that backs
// pipeline caching. An artifact is an immutable blob published under a
// structural coordinate; equal coordinates always denote equal content.
package artifact

import (
	"fmt"
	"path"
	"strings"
)

// Coordinate identifies an artifact by its structural fields. Version is
// frequently a composed string (base version plus mapping versions), which is
// what invalidates downstream caches: a new upstream version yields a new
// coordinate, never an overwrite.
type Coordinate struct {
	Group      string
	Name       string
	Version    string
	Extension  string
	Classifier string
	Snapshot   bool
}

// String renders the coordinate in group:name:version[:classifier] form.
func (c Coordinate) String() string {
	if c.Classifier != "" {
		return fmt.Sprintf("%s:%s:%s:%s@%s", c.Group, c.Name, c.Version, c.Classifier, c.Extension)
	}
	return fmt.Sprintf("%s:%s:%s@%s", c.Group, c.Name, c.Version, c.Extension)
}

// Path returns the store-relative location of the artifact file.
// Layout mirrors a repository tree: group dirs, name, version, file.
func (c Coordinate) Path() string {
	file := c.Name + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	file += "." + c.Extension

	elems := strings.Split(c.Group, ".")
	elems = append(elems, c.Name, c.Version, file)
	return path.Join(elems...)
}

// Validate reports the first malformed field, if any.
func (c Coordinate) Validate() error {
	switch {
	case c.Group == "":
		return fmt.Errorf("artifact coordinate: empty group")
	case c.Name == "":
		return fmt.Errorf("artifact coordinate: empty name")
	case c.Version == "":
		return fmt.Errorf("artifact coordinate: empty version")
	case c.Extension == "":
		return fmt.Errorf("artifact coordinate: empty extension")
	}
	for _, f := range []string{c.Group, c.Name, c.Version, c.Classifier, c.Extension} {
		if strings.ContainsAny(f, "/\\") {
			return fmt.Errorf("artifact coordinate %s: field contains a path separator", c)
		}
	}
	return nil
}
