package pvss

import (
	"fmt"
	"io"

	"github.com/luxfi/optrand/pkg/crypto/dleq"
	"github.com/luxfi/optrand/pkg/crypto/rng"
	"github.com/luxfi/optrand/pkg/hash"
	"github.com/luxfi/optrand/pkg/math/polynomial"
	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
)

// Dealing is one replica's sharing of a fresh secret for one epoch:
// commitments v_i = g2^{p(i)}, encryptions c_i = pk_i^{p(i)}, and one DLEQ
// proof per share attesting that both use the same exponent.
type Dealing struct {
	Comms  []pairing.G2
	Encs   []pairing.G1
	Proofs []dleq.Proof
}

// Deal shares a fresh uniform secret for the given epoch. The secret itself
// is p(0); it is never materialized outside the polynomial.
func (c *Context) Deal(random io.Reader, epoch uint64) (*Dealing, error) {
	p, err := polynomial.Random(random, c.t, nil)
	if err != nil {
		return nil, fmt.Errorf("pvss: dealing: %w", err)
	}

	g2 := pairing.G2Generator()
	d := &Dealing{
		Comms:  make([]pairing.G2, c.n),
		Encs:   make([]pairing.G1, c.n),
		Proofs: make([]dleq.Proof, c.n),
	}
	for i := 0; i < c.n; i++ {
		share := p.EvaluateAt(uint64(i + 1))
		d.Comms[i] = pairing.G2ScalarMult(&g2, &share)
		d.Encs[i] = pairing.G1ScalarMult(&c.publicKeys[i], &share)
		proof, err := dleq.Prove(random, &share,
			&c.publicKeys[i], &d.Encs[i],
			&g2, &d.Comms[i],
			shareTranscript(epoch, c.id, i))
		if err != nil {
			return nil, fmt.Errorf("pvss: dealing: %w", err)
		}
		d.Proofs[i] = proof
	}
	return d, nil
}

// VerifyDealing checks a dealing received from the given dealer: every DLEQ
// proof must hold and the commitment vector must lie on a degree-t polynomial
// in the exponent. Both checks are required; either failure rejects the
// dealing.
func (c *Context) VerifyDealing(d *Dealing, dealer party.ID, epoch uint64) error {
	if !dealer.IsValid(c.n) {
		return fmt.Errorf("%w: unknown dealer", ErrMalformed)
	}
	if len(d.Comms) != c.n || len(d.Encs) != c.n || len(d.Proofs) != c.n {
		return fmt.Errorf("%w: wrong vector length", ErrMalformed)
	}

	g2 := pairing.G2Generator()
	bad := make([]bool, c.n)
	c.pool.Map(c.n, func(i int) {
		bad[i] = !d.Proofs[i].Verify(
			&c.publicKeys[i], &d.Encs[i],
			&g2, &d.Comms[i],
			shareTranscript(epoch, dealer, i))
	})
	for i, b := range bad {
		if b {
			return fmt.Errorf("%w: share %d from dealer %v", ErrInvalidDLEQ, i, dealer)
		}
	}

	return c.checkLowDegree(d.Comms)
}

// checkLowDegree runs the SCRAPE dual-code test on a commitment vector. The
// dual codeword is drawn from a transcript of the commitments themselves, so
// verification is deterministic while remaining sound against vectors fixed
// before the word is known.
func (c *Context) checkLowDegree(comms []pairing.G2) error {
	t := hash.New("optrand/pvss/lowdegree")
	for i := range comms {
		t.WriteBytes(pairing.G2Bytes(&comms[i]))
	}
	seed := t.Sum()

	word, err := polynomial.DualCodeWord(rng.FromBytes(seed[:]), c.n, c.t)
	if err != nil {
		return fmt.Errorf("pvss: low-degree test: %w", err)
	}
	acc, err := pairing.G2MultiExp(comms, word)
	if err != nil {
		return fmt.Errorf("pvss: low-degree test: %w", err)
	}
	if !acc.IsInfinity() {
		return ErrNotOnPolynomial
	}
	return nil
}
