package project

import (
	"fmt"
	"strings"
	"unicode"

	"prdowngrade/internal/faults"
)

// DefaultTargetVersion is the oldest project format; every Premiere build opens it.
const DefaultTargetVersion = "1"

// ValidateTarget rejects version strings that cannot sit inside an XML
// attribute value unescaped or inside an output file name.
func ValidateTarget(target string) error {
	if target == "" {
		return faults.New(faults.KindInvalidTarget, "validate target", "", "target version is empty")
	}
	if i := strings.IndexFunc(target, forbiddenInTarget); i >= 0 {
		return faults.New(faults.KindInvalidTarget, "validate target", "",
			fmt.Sprintf("target version %q contains %q", target, target[i:i+1]))
	}
	return nil
}

func forbiddenInTarget(r rune) bool {
	switch r {
	case '"', '\'', '<', '>', '&', '/', '\\':
		return true
	}
	return unicode.IsControl(r)
}

// Rewrite returns a copy of p with the version value of rec replaced by
// target. Every byte outside rec's value span is reproduced unchanged and p
// itself is never modified.
func Rewrite(p Payload, rec Record, target string) (Payload, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}
	if rec.Start < 0 || rec.Start > rec.End || rec.End > len(p) || string(p[rec.Start:rec.End]) != rec.Version {
		return nil, recordNotFound(fmt.Sprintf("record handle for line %d does not match payload", rec.Line))
	}

	out := make(Payload, 0, len(p)-(rec.End-rec.Start)+len(target))
	out = append(out, p[:rec.Start]...)
	out = append(out, target...)
	out = append(out, p[rec.End:]...)
	return out, nil
}

func recordNotFound(detail string) error {
	return faults.New(faults.KindRecordNotFound, "locate", "", detail)
}
