package eval

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrBadWeights reports a weight file whose header or size does not match
// the network layout.
var ErrBadWeights = errors.New("bad weight file")

const (
	weightsMagic   = "GNUE"
	weightsVersion = 1
)

// weightsHeader is the fixed little-endian header of a weight file.
type weightsHeader struct {
	Magic   [4]byte
	Version uint32
	Inputs  uint32
	Hidden  uint32
}

// LoadNetwork reads a network from r. The layout is the header followed by
// the accumulator weights, biases, output weights (all int16) and the int32
// output bias.
func LoadNetwork(r io.Reader) (*Network, error) {
	br := bufio.NewReader(r)
	var h weightsHeader
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadWeights, err)
	}
	if string(h.Magic[:]) != weightsMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadWeights, h.Magic[:])
	}
	if h.Version != weightsVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadWeights, h.Version)
	}
	if h.Inputs != InputSize || h.Hidden != HiddenSize {
		return nil, fmt.Errorf("%w: layout %dx%d, want %dx%d", ErrBadWeights, h.Inputs, h.Hidden, InputSize, HiddenSize)
	}

	net := &Network{}
	if err := binary.Read(br, binary.LittleEndian, &net.AccWeights); err != nil {
		return nil, fmt.Errorf("%w: accumulator weights: %v", ErrBadWeights, err)
	}
	if err := binary.Read(br, binary.LittleEndian, &net.AccBiases); err != nil {
		return nil, fmt.Errorf("%w: accumulator biases: %v", ErrBadWeights, err)
	}
	if err := binary.Read(br, binary.LittleEndian, &net.OutWeights); err != nil {
		return nil, fmt.Errorf("%w: output weights: %v", ErrBadWeights, err)
	}
	if err := binary.Read(br, binary.LittleEndian, &net.OutBias); err != nil {
		return nil, fmt.Errorf("%w: output bias: %v", ErrBadWeights, err)
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrBadWeights)
	}
	return net, nil
}

// LoadNetworkFile opens path and reads a network from it.
func LoadNetworkFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weight file: %w", err)
	}
	defer f.Close()
	return LoadNetwork(f)
}

// WriteNetwork serialises net in the format LoadNetwork reads.
func WriteNetwork(w io.Writer, net *Network) error {
	bw := bufio.NewWriter(w)
	h := weightsHeader{Version: weightsVersion, Inputs: InputSize, Hidden: HiddenSize}
	copy(h.Magic[:], weightsMagic)
	for _, part := range []any{h, &net.AccWeights, &net.AccBiases, &net.OutWeights, net.OutBias} {
		if err := binary.Write(bw, binary.LittleEndian, part); err != nil {
			return fmt.Errorf("write network: %w", err)
		}
	}
	return bw.Flush()
}

// New builds an evaluator of the given kind. NNUE needs a weight file.
func New(kind Kind, evalFile string) (Evaluator, error) {
	switch kind {
	case KindPSQT, "":
		return NewPSQT(), nil
	case KindNNUE:
		if evalFile == "" {
			return nil, fmt.Errorf("%w: nnue evaluator needs an EvalFile", ErrBadWeights)
		}
		net, err := LoadNetworkFile(evalFile)
		if err != nil {
			return nil, err
		}
		return NewNNUE(net), nil
	}
	return nil, fmt.Errorf("unknown evaluator %q", kind)
}
