package neat

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// EncodeInnovationState writes state in the registry's text format:
//
//	<nextConnection> <nextNode>
//	<n>
//	<packedFromTo> <innovation>   (n lines)
//	<m>
//	<connInnovation> <nodeID>     (m lines)
//
// Pairs are written in ascending key order.
func EncodeInnovationState(w io.Writer, state InnovationState) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d %d\n", state.NextConnection, state.NextNode)

	connKeys := make([]uint64, 0, len(state.Connections))
	for k := range state.Connections {
		connKeys = append(connKeys, k)
	}
	sort.Slice(connKeys, func(i, j int) bool { return connKeys[i] < connKeys[j] })
	fmt.Fprintf(bw, "%d\n", len(connKeys))
	for _, k := range connKeys {
		fmt.Fprintf(bw, "%d %d\n", k, state.Connections[k])
	}

	splitKeys := make([]int, 0, len(state.Splits))
	for k := range state.Splits {
		splitKeys = append(splitKeys, k)
	}
	sort.Ints(splitKeys)
	fmt.Fprintf(bw, "%d\n", len(splitKeys))
	for _, k := range splitKeys {
		fmt.Fprintf(bw, "%d %d\n", k, state.Splits[k])
	}

	return bw.Flush()
}

// DecodeInnovationState reads state written by EncodeInnovationState.
// The format is token based, so line breaks are not significant.
func DecodeInnovationState(r io.Reader) (InnovationState, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("read %s: %w", what, err)
			}
			return "", fmt.Errorf("read %s: %w", what, io.ErrUnexpectedEOF)
		}
		return sc.Text(), nil
	}
	nextInt := func(what string) (int, error) {
		tok, err := next(what)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, fmt.Errorf("parse %s %q: %w", what, tok, err)
		}
		return v, nil
	}

	state := newInnovationState()
	var err error
	if state.NextConnection, err = nextInt("next connection counter"); err != nil {
		return InnovationState{}, err
	}
	if state.NextNode, err = nextInt("next node counter"); err != nil {
		return InnovationState{}, err
	}

	connCount, err := nextInt("connection count")
	if err != nil {
		return InnovationState{}, err
	}
	for i := 0; i < connCount; i++ {
		tok, err := next("connection key")
		if err != nil {
			return InnovationState{}, err
		}
		key, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return InnovationState{}, fmt.Errorf("parse connection key %q: %w", tok, err)
		}
		innov, err := nextInt("connection innovation")
		if err != nil {
			return InnovationState{}, err
		}
		state.Connections[key] = innov
	}

	splitCount, err := nextInt("split count")
	if err != nil {
		return InnovationState{}, err
	}
	for i := 0; i < splitCount; i++ {
		connInnov, err := nextInt("split connection innovation")
		if err != nil {
			return InnovationState{}, err
		}
		nodeID, err := nextInt("split node id")
		if err != nil {
			return InnovationState{}, err
		}
		state.Splits[connInnov] = nodeID
	}

	return state, nil
}
