package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tmc/langchaingo/documentloaders"
)

// SupportedExtensions lists the file types the ingestor accepts.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".pdf":  true,
}

// LoadFile reads a document and returns its text with paragraphs separated by
// blank lines, regardless of the source format.
func LoadFile(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	case ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return markdownText(data), nil
	case ".html":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return htmlText(data)
	case ".pdf":
		return pdfText(ctx, path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", path)
	}
}

// SplitParagraphs splits text into trimmed, non-empty paragraphs on blank
// lines.
func SplitParagraphs(text string) []string {
	var paragraphs []string
	for _, chunk := range strings.Split(text, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			paragraphs = append(paragraphs, chunk)
		}
	}
	return paragraphs
}

// markdownText flattens a markdown document into paragraph-separated text.
// Headings, paragraphs and list items each become a paragraph.
func markdownText(data []byte) string {
	p := parser.New()
	doc := p.Parse(data)

	var paragraphs []string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch node.(type) {
		case *ast.Paragraph, *ast.Heading:
			text := strings.TrimSpace(nodeText(node))
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
			return ast.SkipChildren
		}
		return ast.GoToNext
	})

	return strings.Join(paragraphs, "\n\n")
}

func nodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch leaf := n.(type) {
		case *ast.Text:
			b.Write(leaf.Literal)
		case *ast.Code:
			b.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}

// htmlText sanitizes markup and extracts the text of <p> elements, one
// paragraph each.
func htmlText(data []byte) (string, error) {
	clean := bluemonday.UGCPolicy().SanitizeBytes(data)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(clean))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, "\n\n"), nil
}

// pdfText extracts page text through the langchaingo PDF loader. Each page
// becomes a paragraph boundary.
func pdfText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load pdf %s: %w", path, err)
	}

	pages := make([]string, 0, len(docs))
	for _, d := range docs {
		if text := strings.TrimSpace(d.PageContent); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
