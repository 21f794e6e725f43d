package project

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"prdowngrade/internal/faults"
)

const (
	elementPresetPath    = "PresetPath"
	elementBuildCreated  = "MZ.BuildVersion.Created"
	elementBuildModified = "MZ.BuildVersion.Modified"

	originMarker = "Adobe Premiere Pro"
)

// Info summarizes the version markers of a project without modifying it.
type Info struct {
	Origin          string `json:"origin,omitempty"`
	PresetPath      string `json:"preset_path,omitempty"`
	RootElement     string `json:"root_element,omitempty"`
	DocumentVersion string `json:"document_version,omitempty"`
	ProjectVersion  string `json:"project_version"`
	ObjectID        string `json:"object_id,omitempty"`
	RecordLine      int    `json:"record_line"`
	Candidates      int    `json:"candidates"`
	BuildCreated    string `json:"build_created,omitempty"`
	BuildModified   string `json:"build_modified,omitempty"`
}

// Inspect reports the origin application, the Project record version, and
// the build markers found in p.
func Inspect(p Payload) (*Info, error) {
	rec, err := Locate(p)
	if err != nil {
		return nil, err
	}
	info := &Info{
		ProjectVersion: rec.Version,
		ObjectID:       rec.ObjectID,
		RecordLine:     rec.Line,
		Candidates:     rec.Candidates,
	}
	if err := scanMarkers(p, info); err != nil {
		return nil, err
	}
	info.Origin = OriginLabel(info.PresetPath)
	return info, nil
}

func scanMarkers(p Payload, info *Info) error {
	dec := xml.NewDecoder(bytes.NewReader(p))
	dec.CharsetReader = charsetReader

	wanted := map[string]*string{
		elementPresetPath:    &info.PresetPath,
		elementBuildCreated:  &info.BuildCreated,
		elementBuildModified: &info.BuildModified,
	}
	var (
		depth     int
		capturing *string
		text      strings.Builder
	)
	for len(wanted) > 0 {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return faults.Wrapf(faults.KindFormat, "inspect", "", err, "malformed project XML")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				info.RootElement = t.Name.Local
				info.DocumentVersion = attrValue(t, "Version")
			}
			if dst, ok := wanted[t.Name.Local]; ok && capturing == nil {
				capturing = dst
				text.Reset()
			}
		case xml.CharData:
			if capturing != nil {
				text.Write(t)
			}
		case xml.EndElement:
			depth--
			if capturing != nil && wanted[t.Name.Local] == capturing {
				*capturing = strings.TrimSpace(text.String())
				delete(wanted, t.Name.Local)
				capturing = nil
			}
		}
	}
	return nil
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// OriginLabel picks the application folder out of a preset path, e.g.
// "Adobe Premiere Pro 2020" from
// "/Applications/Adobe Premiere Pro 2020/Adobe Premiere Pro 2020.app/...".
// Segments naming the application without a dot are concatenated in order.
func OriginLabel(presetPath string) string {
	parts := strings.FieldsFunc(presetPath, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	var b strings.Builder
	for _, part := range parts {
		if strings.Contains(part, originMarker) && !strings.Contains(part, ".") {
			b.WriteString(part)
		}
	}
	return b.String()
}
