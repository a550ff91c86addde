package gbrjob

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Error describes an unreadable or structurally invalid job descriptor.
type Error struct {
	msg string
	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func errorf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// functionInfo is the decoded form of one comma-separated FileFunction tag.
type functionInfo struct {
	parts      []string
	kind       string // "copper", "profile", lowercase first token, or "" when unclassified
	layerIndex int
	side       string
}

// parseFileFunction decodes a FileFunction tag such as "Copper,L1,Top".
// Tokens are split on commas and trimmed; empty tokens are dropped. Only the
// first token decides the classification. Unrecognized trailing tokens are
// ignored rather than rejected.
func parseFileFunction(funcStr string) functionInfo {
	var info functionInfo
	for _, p := range strings.Split(funcStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			info.parts = append(info.parts, p)
		}
	}
	if len(info.parts) == 0 {
		return info
	}
	switch strings.ToLower(info.parts[0]) {
	case "copper":
		// Expect something like Copper,L1,Top
		info.kind = "copper"
		for _, p := range info.parts[1:] {
			if idx, ok := copperIndex(p); ok {
				info.layerIndex = idx
			} else if p == SideTop || p == SideBot {
				info.side = p
			}
		}
	case "profile":
		info.kind = "profile"
	default:
		info.kind = strings.ToLower(info.parts[0])
	}
	return info
}

// copperIndex matches tokens of the form L<digits> (case-insensitive L).
func copperIndex(tok string) (int, bool) {
	if len(tok) < 2 || (tok[0] != 'L' && tok[0] != 'l') {
		return 0, false
	}
	n := 0
	for _, c := range tok[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// ParseFile reads and parses a .gbrjob descriptor from disk.
func ParseFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{msg: "cannot read job file", err: err}
	}
	job, err := Parse(data)
	if err != nil {
		return nil, err
	}
	job.SourcePath = path
	return job, nil
}

// Parse decodes a .gbrjob descriptor. It fails only on invalid JSON or a
// missing/malformed GeneralSpecs block; everything else degrades to defaults
// (missing sizes become 0, unknown file entries are dropped). That tolerance
// is deliberate: KiCad versions vary in which optional fields they emit.
func Parse(data []byte) (*Job, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{msg: "invalid JSON", err: err}
	}

	general, ok := raw["GeneralSpecs"].(map[string]any)
	if !ok {
		return nil, errorf("missing or malformed GeneralSpecs")
	}
	job := &Job{DesignRules: map[string]any{}}
	if v, present := general["Size"]; present {
		size, ok := v.(map[string]any)
		if !ok {
			return nil, errorf("malformed GeneralSpecs: Size is not an object")
		}
		if job.BoardSizeX, ok = sizeField(size, "X"); !ok {
			return nil, errorf("malformed GeneralSpecs: non-numeric Size.X")
		}
		if job.BoardSizeY, ok = sizeField(size, "Y"); !ok {
			return nil, errorf("malformed GeneralSpecs: non-numeric Size.Y")
		}
	}
	if f, ok := general["BoardThickness"].(float64); ok {
		job.BoardThickness = &f
	}
	if f, ok := general["LayerNumber"].(float64); ok {
		n := int(f)
		job.LayerNumber = &n
	}

	// Use the first ruleset for now.
	if rules, ok := raw["DesignRules"].([]any); ok && len(rules) > 0 {
		if first, ok := rules[0].(map[string]any); ok {
			job.DesignRules = first
		}
	}

	if v, present := raw["FilesAttributes"]; present {
		files, ok := v.([]any)
		if !ok {
			return nil, errorf("FilesAttributes must be a list")
		}
		for _, e := range files {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			fpath, _ := entry["Path"].(string)
			ffunc, _ := entry["FileFunction"].(string)
			if fpath == "" || ffunc == "" {
				continue
			}
			pol, _ := entry["FilePolarity"].(string)
			info := parseFileFunction(ffunc)
			job.Layers = append(job.Layers, LayerFile{
				Path:       fpath,
				Functions:  info.parts,
				Polarity:   pol,
				LayerIndex: info.layerIndex,
				Side:       info.side,
				IsCopper:   info.kind == "copper",
				IsProfile:  info.kind == "profile",
			})
		}
	}

	return job, nil
}

// sizeField reads an optional numeric member of GeneralSpecs.Size.
// Absent fields default to 0; present but non-numeric fields are an error.
func sizeField(size map[string]any, key string) (float64, bool) {
	v, present := size[key]
	if !present {
		return 0, true
	}
	f, ok := v.(float64)
	return f, ok
}
