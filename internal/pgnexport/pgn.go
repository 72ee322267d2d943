// Package pgnexport assembles finished games into PGN documents and writes
// them out in a single shot.
package pgnexport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/park285/cheese-duel/internal/position"
	"github.com/park285/cheese-duel/internal/session"
)

const maxLineLength = 80

var ErrExportFailure = errors.New("pgn export failed")

// Tags are the Seven Tag Roster values besides Result. Empty values are
// written as empty strings.
type Tags struct {
	Event string
	Site  string
	Date  string
	Round string
	White string
	Black string
}

// Tag is one ordered header pair.
type Tag struct {
	Name  string
	Value string
}

// Document is an assembled PGN game.
type Document struct {
	Tags            []Tag
	Moves           []string
	StartMoveNumber int
	BlackFirst      bool
	Result          string
}

// Assemble builds a document from a finished game record. SetUp and FEN are
// added only when the game did not start from the standard array.
func Assemble(rec *session.Record, tags Tags) Document {
	doc := Document{StartMoveNumber: 1, Result: "*"}
	if rec == nil {
		doc.Tags = rosterTags(tags, doc.Result)
		return doc
	}
	doc.Result = normalizeResult(rec.Result)
	doc.Tags = rosterTags(tags, doc.Result)

	if rec.StartFEN != "" && rec.StartFEN != position.StandardStart {
		doc.Tags = append(doc.Tags, Tag{Name: "SetUp", Value: "1"}, Tag{Name: "FEN", Value: rec.StartFEN})
		if f, err := position.Parse(rec.StartFEN); err == nil {
			if f.FullMove > 0 {
				doc.StartMoveNumber = f.FullMove
			}
			doc.BlackFirst = !f.WhiteToMove()
		}
	}
	for _, m := range rec.Moves {
		doc.Moves = append(doc.Moves, strings.TrimSpace(m.SAN))
	}
	return doc
}

func rosterTags(t Tags, result string) []Tag {
	return []Tag{
		{Name: "Event", Value: t.Event},
		{Name: "Site", Value: t.Site},
		{Name: "Date", Value: t.Date},
		{Name: "Round", Value: t.Round},
		{Name: "White", Value: t.White},
		{Name: "Black", Value: t.Black},
		{Name: "Result", Value: result},
	}
}

func normalizeResult(tag string) string {
	switch tag {
	case "1-0", "0-1", "1/2-1/2":
		return tag
	default:
		return "*"
	}
}

func escapeTagValue(s string) string {
	if !strings.ContainsAny(s, "\\\"") {
		return s
	}
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// Render returns the PGN text: tag pairs, a blank line, then movetext
// wrapped at 80 columns and terminated by the result.
func (d Document) Render() string {
	var b strings.Builder
	for _, t := range d.Tags {
		fmt.Fprintf(&b, "[%s \"%s\"]\n", t.Name, escapeTagValue(t.Value))
	}
	b.WriteString("\n")

	w := lineWriter{b: &b}
	number := d.StartMoveNumber
	if number < 1 {
		number = 1
	}
	white := !d.BlackFirst
	for i, san := range d.Moves {
		switch {
		case white:
			w.write(fmt.Sprintf("%d.", number))
		case i == 0:
			w.write(fmt.Sprintf("%d...", number))
		}
		w.write(san)
		if !white {
			number++
		}
		white = !white
	}
	w.write(d.Result)
	b.WriteString("\n")
	return b.String()
}

// WriteTo writes the rendered document to w.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.Render())
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return int64(n), nil
}

// WriteFile creates or truncates path and writes the document once. No retry.
func WriteFile(path string, d Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	if _, err := d.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

type lineWriter struct {
	b       *strings.Builder
	lineLen int
}

func (w *lineWriter) write(s string) {
	if s == "" {
		return
	}
	if w.lineLen > 0 {
		if w.lineLen+1+len(s) > maxLineLength {
			w.b.WriteString("\n")
			w.lineLen = 0
		} else {
			w.b.WriteString(" ")
			w.lineLen++
		}
	}
	w.b.WriteString(s)
	w.lineLen += len(s)
}
