package unitfmt

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

const heredocDelimiter = "EOF"

// Artifact is one rendered file: its directory, its name and its content.
type Artifact struct {
	Path     string
	Filename string
	Content  string
}

// FullPath returns the artifact's path joined with its filename.
func (a Artifact) FullPath() string {
	return strings.TrimSuffix(a.Path, "/") + "/" + a.Filename
}

// Materialize returns a shell fragment that writes the artifact to disk with
// a quoted heredoc, so the content is written literally.
func Materialize(a Artifact) string {
	content := strings.TrimSuffix(a.Content, "\n")
	delim := delimiterFor(content)
	return fmt.Sprintf("cat > %s <<'%s'\n%s\n%s\n", shellquote.Join(a.FullPath()), delim, content, delim)
}

// MaterializeAll materializes every artifact, separated by blank lines.
func MaterializeAll(artifacts []Artifact) string {
	parts := make([]string, len(artifacts))
	for i, a := range artifacts {
		parts[i] = Materialize(a)
	}
	return strings.Join(parts, "\n")
}

// Preview returns a human readable rendition of the artifact.
func Preview(a Artifact) string {
	content := a.Content
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return "# filepath: " + a.FullPath() + "\n" + content
}

// PreviewAll previews every artifact, separated by blank lines.
func PreviewAll(artifacts []Artifact) string {
	parts := make([]string, len(artifacts))
	for i, a := range artifacts {
		parts[i] = Preview(a)
	}
	return strings.Join(parts, "\n")
}

// delimiterFor picks a heredoc delimiter that no content line equals.
func delimiterFor(content string) string {
	delim := heredocDelimiter
	for {
		clash := false
		for _, line := range strings.Split(content, "\n") {
			if line == delim {
				clash = true
				break
			}
		}
		if !clash {
			return delim
		}
		delim += "_"
	}
}
