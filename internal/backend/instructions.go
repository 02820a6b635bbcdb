package backend

import (
	"fmt"
	"strings"

	"github.com/albertomaydayjhondoe/porterias/internal/document"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

// InstructionsFileName is the fallback file for the instructions of blob.
func InstructionsFileName(blob string) string {
	return blob + ".instructions.txt"
}

// MergeInstructions tells the operator how to finish a manual publish: where
// the downloaded file goes and the literal entry to add to the document.
func MergeInstructions(e models.Entry, downloadPath, mediaDir, documentPath string) (string, error) {
	fragment, err := document.Fragment(e)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Publish %s manually:\n\n", e.ID)
	fmt.Fprintf(&b, "1. Move %s into %s/ of the site repository.\n", downloadPath, strings.TrimRight(mediaDir, "/"))
	fmt.Fprintf(&b, "2. Open %s and add this object at the top of \"entries\":\n\n", documentPath)
	b.WriteString(indent(fragment, "   "))
	b.WriteString("\n\n")
	b.WriteString("3. Set \"lastUpdated\" to the current time.\n")
	b.WriteString("4. Commit and push both files.\n")
	return b.String(), nil
}

// RemovalInstructions tells the operator how to unpublish an entry by hand.
func RemovalInstructions(e models.Entry, mediaDir, documentPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Remove %s manually:\n\n", e.ID)
	fmt.Fprintf(&b, "1. Open %s and delete the object with \"id\": %q from \"entries\".\n", documentPath, e.ID)
	if blob := e.BlobName(); blob != "" {
		fmt.Fprintf(&b, "2. Delete %s/%s.\n", strings.TrimRight(mediaDir, "/"), blob)
		b.WriteString("3. Commit and push.\n")
	} else {
		b.WriteString("2. Commit and push.\n")
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
