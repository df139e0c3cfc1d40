// Package report renders the results of a research run as a markdown
// document and a sanitized HTML page.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/illation/wikisearch/schemas"
)

// Markdown renders the research results for one person as a markdown
// document.
func Markdown(person string, info *schemas.PersonInfo, names *schemas.ArticleNames) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Research report: %s\n\n", person)

	if info == nil {
		sb.WriteString("No entity data was collected.\n")
	} else {
		sb.WriteString("## Entity\n\n")
		fmt.Fprintf(&sb, "- **Birth name**: %s\n", info.BirthName)
		fmt.Fprintf(&sb, "- **Best known as**: %s\n", info.BestKnownAs)
		if len(info.AlternateNames) > 0 {
			fmt.Fprintf(&sb, "- **Alternate names**: %s\n", strings.Join(info.AlternateNames, ", "))
		}
		fmt.Fprintf(&sb, "- **Best known for**: %s\n", info.BestKnownFor)
		fmt.Fprintf(&sb, "- **Real**: %t, **Human**: %t\n", info.IsReal, info.IsHuman)
		fmt.Fprintf(&sb, "- **Born**: %s\n", formatBirthDate(info))
		fmt.Fprintf(&sb, "- **Assigned gender at birth**: %s, **Gender identity**: %s\n",
			info.AssignedGenderAtBirth, info.GenderIdentity)
		fmt.Fprintf(&sb, "- **Origin**: %s\n", formatOrigin(info))
	}

	sb.WriteString("\n## Co-occurring names\n\n")
	if names == nil || len(names.Names) == 0 {
		sb.WriteString("No names were found in the retrieved articles.\n")
		return sb.String()
	}

	for i, ref := range names.Names {
		name := ref.Name
		if ref.URL != nil {
			name = fmt.Sprintf("[%s](%s)", ref.Name, *ref.URL)
		}
		if ref.Relationship != nil {
			fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, name, *ref.Relationship)
		} else {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
		}
	}
	return sb.String()
}

// HTML converts a markdown report into sanitized HTML.
func HTML(markdownText string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(markdownText))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)
	htmlBytes := markdown.Render(doc, renderer)

	return bluemonday.UGCPolicy().SanitizeBytes(htmlBytes)
}

// Write renders both report forms into dir as report.md and report.html.
func Write(dir, person string, info *schemas.PersonInfo, names *schemas.ArticleNames) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	md := Markdown(person, info, names)
	if err := os.WriteFile(filepath.Join(dir, "report.md"), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.html"), HTML(md), 0o644); err != nil {
		return fmt.Errorf("write html report: %w", err)
	}
	return nil
}

func formatBirthDate(info *schemas.PersonInfo) string {
	if info.BirthYear == nil {
		return "unknown"
	}

	year := *info.BirthYear
	era := "CE"
	if year < 0 {
		year = -year
		era = "BCE"
	}

	date := fmt.Sprintf("%d %s", year, era)
	if info.BirthMonth != nil {
		date = fmt.Sprintf("%d-%02d %s", year, *info.BirthMonth, era)
		if info.BirthDay != nil {
			date = fmt.Sprintf("%d-%02d-%02d %s", year, *info.BirthMonth, *info.BirthDay, era)
		}
	}
	return date
}

func formatOrigin(info *schemas.PersonInfo) string {
	var parts []string
	for _, p := range []string{info.LocalityOfOrigin, info.CountryOfOrigin, info.ContinentOfOrigin} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}
