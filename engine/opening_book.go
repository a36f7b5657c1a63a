package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"lukechampine.com/frand"

	"goosechess/chessmg"
)

// Book maps position hashes to the moves played from them, weighted by how
// many book lines share the move.
//
// Each line of a book file is a CSV record; the last field (the third, when
// there are three or more) holds the moves in coordinate notation, optionally
// numbered: "1. e2e4 e7e5 2. g1f3".
type Book struct {
	entries map[uint64][]bookMove
	lines   int
}

type bookMove struct {
	move   string
	weight int
}

var moveNumber = regexp.MustCompile(`[0-9]+\.`)

// LoadBook reads a book from r. Every line is replayed from the standard
// start position; an illegal or malformed move fails the whole load.
func LoadBook(r io.Reader) (*Book, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	b := &Book{entries: make(map[uint64][]bookMove)}
	for {
		records, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opening book: %w", err)
		}
		field := records[len(records)-1]
		if len(records) >= 3 {
			field = records[2]
		}
		line, _ := reader.FieldPos(0)
		if err := b.addLine(moveNumber.ReplaceAllString(field, " ")); err != nil {
			return nil, fmt.Errorf("opening book line %d: %w", line, err)
		}
	}
	return b, nil
}

// LoadBookFile opens and parses a book file.
func LoadBookFile(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadBook(f)
}

func (b *Book) addLine(moves string) error {
	fields := strings.Fields(moves)
	if len(fields) == 0 {
		return nil
	}
	pos, _ := chessmg.ParseFEN(chessmg.FENStartPos)
	for _, tok := range fields {
		m, err := pos.ParseMove(tok)
		if err != nil {
			return err
		}
		b.add(pos.Hash(), pos.MoveString(m))
		pos.MakeMove(m)
	}
	b.lines++
	return nil
}

func (b *Book) add(hash uint64, mv string) {
	list := b.entries[hash]
	for i := range list {
		if list[i].move == mv {
			list[i].weight++
			return
		}
	}
	b.entries[hash] = append(list, bookMove{move: mv, weight: 1})
}

// Lines is the number of book lines loaded.
func (b *Book) Lines() int { return b.lines }

// Positions is the number of distinct positions with a book move.
func (b *Book) Positions() int { return len(b.entries) }

// Probe picks a book move for pos at random, weighted by popularity. The move
// is re-parsed in pos so it is legal and encoded for pos's castling convention.
func (b *Book) Probe(pos *chessmg.Position) (chessmg.Move, bool) {
	if b == nil {
		return chessmg.NullMove, false
	}
	list := b.entries[pos.Hash()]
	total := 0
	for _, bm := range list {
		total += bm.weight
	}
	if total == 0 {
		return chessmg.NullMove, false
	}

	pick := frand.Intn(total)
	for _, bm := range list {
		pick -= bm.weight
		if pick < 0 {
			m, err := pos.ParseMove(bm.move)
			if err != nil {
				return chessmg.NullMove, false
			}
			return m, true
		}
	}
	return chessmg.NullMove, false
}
