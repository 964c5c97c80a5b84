// Package sourcemap builds Source Map v3 documents from codegen mappings.
//
// Positions in macro expansions and other synthetic sources have no text a
// reader could open, so their mappings are dropped and the generated code
// they produced maps to nothing.
package sourcemap

import (
	"encoding/base64"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/leapstack-labs/leapmacro/pkg/codegen"
	"github.com/leapstack-labs/leapmacro/pkg/source"
)

// Version is the only supported source map revision.
const Version = 3

// Config configures Build.
type Config struct {
	// File is the name of the generated file, written as "file".
	File string
	// SourceRoot is written as "sourceRoot" when set.
	SourceRoot string
	// SourcesContent inlines the text of every referenced source.
	SourcesContent bool
}

// Map is a Source Map v3 document.
type Map struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// Segment is one decoded mapping. All fields are 0-based; columns count
// UTF-16 code units.
type Segment struct {
	GenLine int
	GenCol  int
	Source  int
	SrcLine int
	SrcCol  int
}

// Build encodes mappings, which must be in generation order, against the
// files of sm.
func Build(sm *source.Map, mappings []codegen.Mapping, cfg Config) (*Map, error) {
	m := &Map{
		Version:    Version,
		File:       cfg.File,
		SourceRoot: cfg.SourceRoot,
		Sources:    []string{},
		Names:      []string{},
	}
	index := make(map[*source.File]int)

	var b strings.Builder
	var line, prevGenCol int
	var prevSrc, prevLine, prevCol int
	first := true
	for _, mp := range mappings {
		if !mp.Src.IsValid() {
			continue
		}
		file := sm.FileOf(mp.Src)
		if file == nil {
			return nil, fmt.Errorf("sourcemap: position %d is outside every source", mp.Src)
		}
		if file.Name().IsSynthetic() {
			continue
		}
		if mp.GenLine < line || mp.GenLine == line && !first && mp.GenCol < prevGenCol {
			return nil, fmt.Errorf("sourcemap: mapping at %d:%d is out of order", mp.GenLine, mp.GenCol)
		}

		src, ok := index[file]
		if !ok {
			src = len(m.Sources)
			index[file] = src
			m.Sources = append(m.Sources, file.Name().String())
			if cfg.SourcesContent {
				text := file.Source()
				m.SourcesContent = append(m.SourcesContent, &text)
			}
		}

		for line < mp.GenLine {
			b.WriteByte(';')
			line++
			prevGenCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		pos := file.Position(mp.Src)
		srcLine, srcCol := pos.Line-1, file.UTF16Column(mp.Src)

		writeVLQ(&b, mp.GenCol-prevGenCol)
		writeVLQ(&b, src-prevSrc)
		writeVLQ(&b, srcLine-prevLine)
		writeVLQ(&b, srcCol-prevCol)

		prevGenCol, prevSrc, prevLine, prevCol = mp.GenCol, src, srcLine, srcCol
		first = false
	}
	m.Mappings = b.String()
	return m, nil
}

// Encode writes segs, which must be in generation order, as a mappings
// string.
func Encode(segs []Segment) (string, error) {
	var b strings.Builder
	var line, prevGenCol, prevSrc, prevLine, prevCol int
	first := true
	for _, s := range segs {
		if s.GenLine < line || s.GenLine == line && !first && s.GenCol < prevGenCol {
			return "", fmt.Errorf("sourcemap: segment at %d:%d is out of order", s.GenLine, s.GenCol)
		}
		for line < s.GenLine {
			b.WriteByte(';')
			line++
			prevGenCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		writeVLQ(&b, s.GenCol-prevGenCol)
		writeVLQ(&b, s.Source-prevSrc)
		writeVLQ(&b, s.SrcLine-prevLine)
		writeVLQ(&b, s.SrcCol-prevCol)
		prevGenCol, prevSrc, prevLine, prevCol = s.GenCol, s.Source, s.SrcLine, s.SrcCol
		first = false
	}
	return b.String(), nil
}

// DataURL returns the map as a base64 data URL for an inline
// sourceMappingURL comment.
func (m *Map) DataURL() (string, error) {
	data, err := m.JSON()
	if err != nil {
		return "", err
	}
	return "data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// JSON serializes the map.
func (m *Map) JSON() ([]byte, error) {
	data, err := gojson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("sourcemap: encode: %w", err)
	}
	return data, nil
}

// Parse decodes a Source Map v3 document.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := gojson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("sourcemap: decode: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("sourcemap: unsupported version %d", m.Version)
	}
	return &m, nil
}

// Segments decodes the mappings string. Segments without a source are
// skipped.
func (m *Map) Segments() ([]Segment, error) {
	var segs []Segment
	var src, srcLine, srcCol int
	for genLine, group := range strings.Split(m.Mappings, ";") {
		genCol := 0
		if group == "" {
			continue
		}
		for _, raw := range strings.Split(group, ",") {
			var fields [5]int
			n := 0
			for rest := raw; rest != ""; n++ {
				if n == len(fields) {
					return nil, fmt.Errorf("sourcemap: segment %q has too many fields", raw)
				}
				v, next, err := readVLQ(rest)
				if err != nil {
					return nil, fmt.Errorf("sourcemap: segment %q: %w", raw, err)
				}
				fields[n], rest = v, next
			}
			switch n {
			case 1, 4, 5:
			default:
				return nil, fmt.Errorf("sourcemap: segment %q has %d fields", raw, n)
			}
			genCol += fields[0]
			if n == 1 {
				continue
			}
			src += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			if src < 0 || src >= len(m.Sources) {
				return nil, fmt.Errorf("sourcemap: segment %q refers to source %d", raw, src)
			}
			segs = append(segs, Segment{
				GenLine: genLine,
				GenCol:  genCol,
				Source:  src,
				SrcLine: srcLine,
				SrcCol:  srcCol,
			})
		}
	}
	return segs, nil
}
