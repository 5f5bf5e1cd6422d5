// Package ziparchive builds the downloadable archive: one top-level folder
// per category, each document's original bytes under its original name, plus
// a classification report workbook at the root.
package ziparchive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

const reportFilename = "classification_report.xlsx"

type Writer struct {
	includeReport bool
}

func NewWriter(includeReport bool) *Writer {
	return &Writer{includeReport: includeReport}
}

// Write assembles the archive fully in memory and returns bytes only when
// every entry succeeded; a failure anywhere drops the whole buffer. Entry
// order follows the grouping's insertion order so fixtures stay
// deterministic. Two documents sharing a name within one category collide on
// the archive path; the later one is renamed "<base>_<docID><ext>".
func (w *Writer) Write(ctx context.Context, groups []domain.CategoryGroup, contents map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		used := make(map[string]struct{}, len(group.Documents))
		for _, doc := range group.Documents {
			data, ok := contents[doc.ID]
			if !ok {
				return nil, fmt.Errorf("missing content for document %s (%s)", doc.ID, doc.OriginalName)
			}
			name := entryName(doc, used)
			used[name] = struct{}{}

			entry, err := zw.Create(path.Join(group.Category, name))
			if err != nil {
				return nil, fmt.Errorf("create archive entry %s/%s: %w", group.Category, name, err)
			}
			if _, err := entry.Write(data); err != nil {
				return nil, fmt.Errorf("write archive entry %s/%s: %w", group.Category, name, err)
			}
		}
	}

	if w.includeReport {
		report, err := buildReport(groups)
		if err != nil {
			return nil, fmt.Errorf("build classification report: %w", err)
		}
		entry, err := zw.Create(reportFilename)
		if err != nil {
			return nil, fmt.Errorf("create report entry: %w", err)
		}
		if _, err := entry.Write(report); err != nil {
			return nil, fmt.Errorf("write report entry: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// entryName keeps every entry directly under its category folder. Uploaded
// names may carry directory segments or traversal sequences; only the base
// name survives.
func entryName(doc domain.Document, used map[string]struct{}) string {
	name := path.Base(strings.ReplaceAll(doc.OriginalName, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		name = doc.ID
	}
	if _, taken := used[name]; !taken {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", base, doc.ID, ext)
}
