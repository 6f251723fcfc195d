package pvss

import (
	"fmt"

	"github.com/luxfi/optrand/pkg/crypto/dleq"
	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
)

// AggregatePVSS is the componentwise product of t+1 dealings. It shares a
// degree-t polynomial whose secret is the sum of the constituents' secrets,
// so it stays reconstructible by any t+1 decryption shares.
type AggregatePVSS struct {
	Comms []pairing.G2
	Encs  []pairing.G1
}

// DecompositionProof shows, for one target share index, that the aggregate's
// component is the product of components from the named dealers, each backed
// by that dealer's original DLEQ proof. Verification is linear in t+1 instead
// of re-running full dealing verification per constituent.
type DecompositionProof struct {
	// Idx is the share index this proof decomposes.
	Idx int
	// Indices names the dealers whose dealings were combined.
	Indices []party.ID
	// Comms and Encs are the constituent components at Idx, one per dealer.
	Comms []pairing.G2
	Encs  []pairing.G1
	// Proofs are the dealers' DLEQ proofs for the Idx-th share.
	Proofs []dleq.Proof
}

// Aggregate combines the given dealings into one aggregate plus one
// decomposition proof per share index. Callers must have verified every
// dealing; indices must be distinct and count at least t+1. The output is a
// pure function of its inputs.
func (c *Context) Aggregate(indices []party.ID, dealings []*Dealing) (*AggregatePVSS, []*DecompositionProof, error) {
	if len(indices) != len(dealings) {
		return nil, nil, fmt.Errorf("%w: %d indices for %d dealings", ErrMalformed, len(indices), len(dealings))
	}
	if len(dealings) < c.t+1 {
		return nil, nil, fmt.Errorf("pvss: aggregate needs %d dealings, got %d", c.t+1, len(dealings))
	}
	if !party.IDSlice(indices).Distinct() {
		return nil, nil, fmt.Errorf("%w: duplicate dealer index", ErrMalformed)
	}
	for j, d := range dealings {
		if len(d.Comms) != c.n || len(d.Encs) != c.n || len(d.Proofs) != c.n {
			return nil, nil, fmt.Errorf("%w: dealing %d has wrong vector length", ErrMalformed, j)
		}
		if !indices[j].IsValid(c.n) {
			return nil, nil, fmt.Errorf("%w: dealer index %v", ErrMalformed, indices[j])
		}
	}

	agg := &AggregatePVSS{
		Comms: make([]pairing.G2, c.n),
		Encs:  make([]pairing.G1, c.n),
	}
	proofs := make([]*DecompositionProof, c.n)
	for k := 0; k < c.n; k++ {
		dp := &DecompositionProof{
			Idx:     k,
			Indices: append([]party.ID(nil), indices...),
			Comms:   make([]pairing.G2, len(dealings)),
			Encs:    make([]pairing.G1, len(dealings)),
			Proofs:  make([]dleq.Proof, len(dealings)),
		}
		for j, d := range dealings {
			dp.Comms[j] = d.Comms[k]
			dp.Encs[j] = d.Encs[k]
			dp.Proofs[j] = d.Proofs[k]
			if j == 0 {
				agg.Comms[k] = d.Comms[k]
				agg.Encs[k] = d.Encs[k]
			} else {
				agg.Comms[k] = pairing.G2Add(&agg.Comms[k], &d.Comms[k])
				agg.Encs[k] = pairing.G1Add(&agg.Encs[k], &d.Encs[k])
			}
		}
		proofs[k] = dp
	}
	return agg, proofs, nil
}

// PVerify runs the low-degree test on an aggregate's commitment vector. It
// needs no dealer keys and is safe on untrusted input.
func (c *Context) PVerify(agg *AggregatePVSS) error {
	if len(agg.Comms) != c.n || len(agg.Encs) != c.n {
		return fmt.Errorf("%w: wrong vector length", ErrMalformed)
	}
	return c.checkLowDegree(agg.Comms)
}

// DecompVerify checks a decomposition proof against an aggregate: every
// constituent component must carry a valid DLEQ proof from its dealer, and
// the components must multiply to the aggregate's entry at the target index.
func (c *Context) DecompVerify(agg *AggregatePVSS, dp *DecompositionProof, epoch uint64) error {
	if len(agg.Comms) != c.n || len(agg.Encs) != c.n {
		return fmt.Errorf("%w: wrong aggregate length", ErrMalformed)
	}
	if dp.Idx < 0 || dp.Idx >= c.n {
		return fmt.Errorf("%w: target index %d", ErrMalformed, dp.Idx)
	}
	m := len(dp.Indices)
	if m < c.t+1 {
		return fmt.Errorf("pvss: decomposition cites %d dealers, need %d", m, c.t+1)
	}
	if len(dp.Comms) != m || len(dp.Encs) != m || len(dp.Proofs) != m {
		return fmt.Errorf("%w: wrong constituent length", ErrMalformed)
	}
	if !party.IDSlice(dp.Indices).Distinct() {
		return fmt.Errorf("%w: duplicate dealer index", ErrMalformed)
	}

	g2 := pairing.G2Generator()
	var vProd pairing.G2
	var cProd pairing.G1
	for j := 0; j < m; j++ {
		dealer := dp.Indices[j]
		if !dealer.IsValid(c.n) {
			return fmt.Errorf("%w: dealer index %v", ErrMalformed, dealer)
		}
		ok := dp.Proofs[j].Verify(
			&c.publicKeys[dp.Idx], &dp.Encs[j],
			&g2, &dp.Comms[j],
			shareTranscript(epoch, dealer, dp.Idx))
		if !ok {
			return fmt.Errorf("%w: constituent from dealer %v", ErrInvalidDLEQ, dealer)
		}
		if j == 0 {
			vProd = dp.Comms[j]
			cProd = dp.Encs[j]
		} else {
			vProd = pairing.G2Add(&vProd, &dp.Comms[j])
			cProd = pairing.G1Add(&cProd, &dp.Encs[j])
		}
	}
	if !vProd.Equal(&agg.Comms[dp.Idx]) || !cProd.Equal(&agg.Encs[dp.Idx]) {
		return fmt.Errorf("pvss: decomposition does not reproduce aggregate at index %d", dp.Idx)
	}
	return nil
}
