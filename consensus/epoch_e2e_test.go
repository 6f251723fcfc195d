package consensus_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/optrand/consensus"
	"github.com/luxfi/optrand/internal/test"
	"github.com/luxfi/optrand/pkg/pairing"
	"github.com/luxfi/optrand/pkg/party"
)

const (
	e2eNodes = 4
	e2eDelta = 50 * time.Millisecond
	e2eSeed  = 42
)

func epochSpan(n int) time.Duration {
	return time.Duration(n) * 11 * e2eDelta
}

var _ = Describe("epoch progression", func() {
	var net *test.Network

	newNet := func() *test.Network {
		n, err := test.NewNetwork(e2eNodes, uint64(e2eDelta/time.Millisecond), e2eSeed)
		Expect(err).NotTo(HaveOccurred())
		return n
	}

	Describe("happy path with an honest leader", func() {
		BeforeEach(func() {
			net = newNet()
			net.Start()
			net.RunUntil(epochSpan(1))
		})

		It("commits the same block at every replica", func() {
			first, ok := net.Machines[0].Commits[0]
			Expect(ok).To(BeTrue(), "replica 0 should commit in epoch 0")
			for i, m := range net.Machines {
				Expect(m.Commits).To(HaveKey(uint64(0)), "replica %d", i)
				Expect(m.Commits[0]).To(Equal(first))
			}
		})

		It("reconstructs byte-identical beacons", func() {
			ref := net.Machines[0].Beacons[0]
			Expect(ref).NotTo(BeNil())
			refValue := pairing.G1Bytes(&ref.Value)
			for i, m := range net.Machines {
				b := m.Beacons[0]
				Expect(b).NotTo(BeNil(), "replica %d", i)
				Expect(pairing.G1Bytes(&b.Value)).To(Equal(refValue))
				Expect(b.Secret.Equal(&ref.Secret)).To(BeTrue())
			}
		})

		It("moves every replica to epoch 1", func() {
			for _, m := range net.Machines {
				Expect(m.SM.Epoch()).To(BeNumerically(">=", 1))
			}
		})
	})

	Describe("several epochs in sequence", func() {
		BeforeEach(func() {
			net = newNet()
			net.Start()
			net.RunUntil(epochSpan(3))
		})

		It("commits a growing chain with rotating leaders", func() {
			for e := uint64(0); e < 3; e++ {
				ref, ok := net.Machines[0].Commits[e]
				Expect(ok).To(BeTrue(), "epoch %d should commit", e)
				for i, m := range net.Machines {
					Expect(m.Commits[e]).To(Equal(ref), "replica %d epoch %d", i, e)
				}
			}
		})

		It("produces distinct beacons per epoch", func() {
			b0 := net.Machines[0].Beacons[0]
			b1 := net.Machines[0].Beacons[1]
			Expect(b0).NotTo(BeNil())
			Expect(b1).NotTo(BeNil())
			Expect(b0.Secret.Equal(&b1.Secret)).To(BeFalse())
		})

		It("advances every highest certificate to epoch 2", func() {
			for _, m := range net.Machines {
				highest := m.SM.Highest()
				Expect(highest.Vote.Epoch).To(BeNumerically(">=", uint64(2)))
			}
		})
	})

	Describe("decryption share shortage", func() {
		BeforeEach(func() {
			net = newNet()
			// Swallow every decryption share in transit: each replica is
			// left with only its own, below the t+1 threshold.
			net.Filter = func(from, to party.ID, m *consensus.Message) bool {
				return m.Kind != consensus.KindDecryptionShare
			}
			net.Start()
			net.RunUntil(epochSpan(2))
		})

		It("commits but produces no beacon, then advances", func() {
			for i, m := range net.Machines {
				Expect(m.Commits).To(HaveKey(uint64(0)), "replica %d", i)
				Expect(m.Beacons).NotTo(HaveKey(uint64(0)), "replica %d", i)
				Expect(m.SM.Epoch()).To(BeNumerically(">=", 2))
			}
		})
	})

	Describe("a partitioned replica", func() {
		BeforeEach(func() {
			net = newNet()
			// Replica 3 hears nothing during epoch 0.
			net.Filter = func(from, to party.ID, m *consensus.Message) bool {
				return to != 3 || m.Epoch != 0
			}
			net.Start()
			net.RunUntil(epochSpan(2))
		})

		It("lets the quorum commit without the partitioned replica", func() {
			for _, i := range []int{0, 1, 2} {
				Expect(net.Machines[i].Commits).To(HaveKey(uint64(0)), "replica %d", i)
			}
			Expect(net.Machines[3].Commits).NotTo(HaveKey(uint64(0)))
		})

		It("catches the replica up through later certificates", func() {
			// Once epoch 1 traffic flows again, the stale replica adopts
			// the higher certificate from the sync-cert broadcast while its
			// epoch clock advances on its own schedule.
			highest := net.Machines[3].SM.Highest()
			Expect(highest.Vote.Height).To(BeNumerically(">=", uint64(1)))
			Expect(net.Machines[3].SM.Epoch()).To(BeNumerically(">=", 2))
		})
	})
})
