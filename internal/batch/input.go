package batch

import (
	"path/filepath"
	"strings"
)

// Kind identifies how an input is read.
type Kind string

const (
	KindLog    Kind = "log"
	KindMedia  Kind = "media"
	KindResult Kind = "result"
)

// StdinPath names standard input.
const StdinPath = "-"

// Input is one thing to run detection on.
type Input struct {
	Path string
	Kind Kind
}

// IsStdin reports whether the input is read from standard input.
func (in Input) IsStdin() bool {
	return in.Path == "" || in.Path == StdinPath
}

// Classify infers the kind of path. JSON files are earlier results; anything
// else is a silencedetect log unless media is set.
func Classify(path string, media bool) Input {
	path = strings.TrimSpace(path)
	if path == "" || path == StdinPath {
		return Input{Path: StdinPath, Kind: KindLog}
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return Input{Path: path, Kind: KindResult}
	}
	if media {
		return Input{Path: path, Kind: KindMedia}
	}
	return Input{Path: path, Kind: KindLog}
}

// ClassifyAll classifies every path. No paths means stdin.
func ClassifyAll(paths []string, media bool) []Input {
	if len(paths) == 0 {
		return []Input{{Path: StdinPath, Kind: KindLog}}
	}
	inputs := make([]Input, 0, len(paths))
	for _, p := range paths {
		inputs = append(inputs, Classify(p, media))
	}
	return inputs
}
