// Package analyze summarises result logs written by the harness: detection
// rate, score distribution, score range file lists and region of interest
// hits.
package analyze

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva"
)

var (
	countRe  = regexp.MustCompile(`^Object count: (\d+)`)
	objectRe = regexp.MustCompile(`^Object (\d+): topLeft:\[(-?\d+),(-?\d+)\], ` +
		`bottomRight:\[(-?\d+),(-?\d+)\],objId: (-?\d+), frameId: (-?\d+), ` +
		`score: (-?\d+), type: (-?\d+)\(`)
	scoreRe = regexp.MustCompile(`score:\s*(\d+)`)
)

// Block is the record of one processed frame
type Block struct {
	File    string
	Count   int
	Objects []rkiva.ObjectInfo
	// text holds the block lines following the file name
	text string
}

// Score is the first score in the block, zero when nothing was detected
func (b *Block) Score() int {

	m := scoreRe.FindStringSubmatch(b.text)

	if m == nil {
		return 0
	}

	n, _ := strconv.Atoi(m[1])

	return n
}

// Detected reports if the block records a detection
func (b *Block) Detected() bool {
	return strings.Contains(b.text, "detected") && !strings.Contains(b.text, "not detect")
}

// NoDetection reports if the block records a frame with no objects
func (b *Block) NoDetection() bool {
	return strings.Contains(b.text, "Object count: 0") ||
		strings.Contains(strings.ToLower(b.text), "not detect")
}

// Log is a parsed result log
type Log struct {
	Path   string
	Blocks []Block
	// FileLines counts "File:" lines, which includes any malformed blocks
	FileLines int
}

// Base returns the log file name with the _result.txt suffix removed
func (l *Log) Base() string {
	return strings.TrimSuffix(filepath.Base(l.Path), "_result.txt")
}

// Label returns the display name of the log
func (l *Log) Label() string {

	base := l.Base()

	if base == "" {
		return base
	}

	return strings.ToUpper(base[:1]) + strings.ToLower(base[1:])
}

// Scores returns the score of every block in log order
func (l *Log) Scores() []int {

	scores := make([]int, len(l.Blocks))

	for i := range l.Blocks {
		scores[i] = l.Blocks[i].Score()
	}

	return scores
}

// Detected returns the number of blocks with a detection
func (l *Log) Detected() int {

	n := 0

	for i := range l.Blocks {
		if l.Blocks[i].Detected() {
			n++
		}
	}

	return n
}

// ParseFile reads and parses the result log at path
func ParseFile(path string) (*Log, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrapf(err, "opening result log %s", path)
	}

	defer f.Close()

	return Parse(f, path)
}

// Parse reads a result log from r, path is recorded as the log's name
func Parse(r io.Reader, path string) (*Log, error) {

	log := &Log{Path: path}

	var (
		cur  *Block
		text strings.Builder
	)

	finish := func() {
		if cur != nil {
			cur.text = text.String()
			log.Blocks = append(log.Blocks, *cur)
		}

		text.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.Contains(line, "File:") {
			log.FileLines++
		}

		if name, ok := strings.CutPrefix(line, "File: "); ok {
			finish()
			cur = &Block{File: strings.TrimSpace(name)}
			continue
		}

		if cur == nil {
			continue
		}

		text.WriteString(line)
		text.WriteByte('\n')

		if m := countRe.FindStringSubmatch(line); m != nil {
			cur.Count, _ = strconv.Atoi(m[1])
			continue
		}

		if m := objectRe.FindStringSubmatch(line); m != nil {
			cur.Objects = append(cur.Objects, parseObject(m))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading result log %s", path)
	}

	finish()

	return log, nil
}

// parseObject converts the submatches of objectRe
func parseObject(m []string) rkiva.ObjectInfo {

	n := make([]int, 9)

	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}

	return rkiva.ObjectInfo{
		Rect: rkiva.Rect{
			TopLeft:     rkiva.Point{X: n[1], Y: n[2]},
			BottomRight: rkiva.Point{X: n[3], Y: n[4]},
		},
		ObjID:   n[5],
		FrameID: n[6],
		Score:   n[7],
		Type:    rkiva.ObjectType(n[8]),
	}
}
