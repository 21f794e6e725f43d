package project

import (
	"bytes"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// RecordMarker opens the Project record that carries an identity attribute.
// Other <Project ...> elements in the document are ObjectRef pointers.
const RecordMarker = `<Project ObjectID="`

var (
	recordMarker = []byte(RecordMarker)
	// The leading whitespace keeps attributes such as ClassVersion from matching.
	versionAttr  = regexp.MustCompile(`\sVersion=(?:"([^"]*)"|'([^']*)')`)
	objectIDAttr = regexp.MustCompile(`ObjectID="([^"]*)"`)
)

// Payload is the decompressed text of a project container.
type Payload []byte

// Valid reports whether the payload is well-formed UTF-8.
func (p Payload) Valid() bool {
	return utf8.Valid(p)
}

// Record identifies the version value of the Project record inside a payload.
type Record struct {
	// Line is the 1-based line holding the record.
	Line int
	// Start and End delimit the version value bytes, excluding quotes.
	Start int
	End   int
	// ObjectID is the record's identity attribute.
	ObjectID string
	// Version is the value found between Start and End.
	Version string
	// Candidates counts lines containing RecordMarker. Only the first is used.
	Candidates int
}

// Ambiguous reports whether more than one candidate line was seen.
func (r Record) Ambiguous() bool {
	return r.Candidates > 1
}

// Locate scans the payload line by line for the first line containing
// RecordMarker and returns the byte span of its Version attribute value.
func Locate(p Payload) (Record, error) {
	var (
		rec   Record
		found bool
		line  int
	)
	for offset := 0; offset < len(p); {
		line++
		lineEnd := len(p)
		next := len(p)
		if idx := bytes.IndexByte(p[offset:], '\n'); idx >= 0 {
			lineEnd = offset + idx
			next = lineEnd + 1
		}

		if idx := bytes.Index(p[offset:lineEnd], recordMarker); idx >= 0 {
			rec.Candidates++
			if !found {
				found = true
				first, err := recordAt(p, offset+idx, lineEnd, line)
				if err != nil {
					return Record{}, err
				}
				first.Candidates = rec.Candidates
				rec = first
			}
		}
		offset = next
	}

	if !found {
		return Record{}, recordNotFound(fmt.Sprintf("no line contains %s", RecordMarker))
	}
	return rec, nil
}

func recordAt(p Payload, markerPos, lineEnd, line int) (Record, error) {
	tag := p[markerPos:lineEnd]
	if gt := bytes.IndexByte(tag, '>'); gt >= 0 {
		tag = tag[:gt+1]
	}

	loc := versionAttr.FindSubmatchIndex(tag)
	if loc == nil {
		return Record{}, recordNotFound(fmt.Sprintf("line %d: Project record has no Version attribute", line))
	}
	start, end := loc[2], loc[3]
	if start < 0 {
		start, end = loc[4], loc[5]
	}

	rec := Record{
		Line:    line,
		Start:   markerPos + start,
		End:     markerPos + end,
		Version: string(tag[start:end]),
	}
	if m := objectIDAttr.FindSubmatch(tag); m != nil {
		rec.ObjectID = string(m[1])
	}
	return rec, nil
}
