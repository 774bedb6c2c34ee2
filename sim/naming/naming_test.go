package naming_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vsim/sim/naming"
)

var _ = Describe("Name", func() {
	It("should parse a name", func() {
		n, err := naming.Parse("cpu[0].alu.carry")

		Expect(err).NotTo(HaveOccurred())
		Expect(n.Tokens).To(Equal([]naming.Token{
			{Elem: "cpu", Index: []int{0}},
			{Elem: "alu"},
			{Elem: "carry"},
		}))
	})

	It("should parse multi-dimensional indices", func() {
		n, err := naming.Parse("mem[1][2].cell")

		Expect(err).NotTo(HaveOccurred())
		Expect(n.Tokens[0].Index).To(Equal([]int{1, 2}))
		Expect(n.String()).To(Equal("mem[1][2].cell"))
	})

	It("should give the parent", func() {
		n, _ := naming.Parse("chain.s3")

		Expect(n.Parent().String()).To(Equal("chain"))
		Expect(naming.Name{}.Parent().Tokens).To(BeEmpty())
	})

	DescribeTable("invalid names",
		func(name string) {
			Expect(naming.Validate(name)).To(HaveOccurred())
			Expect(func() { naming.MustBeValid(name) }).To(Panic())
		},
		Entry("empty", ""),
		Entry("empty element", "top..carry"),
		Entry("trailing dot", "top."),
		Entry("dash", "top-level"),
		Entry("leading digit", "0bus"),
		Entry("unclosed bracket", "bus[0"),
		Entry("unopened bracket", "bus0]"),
		Entry("text index", "bus[a]"),
		Entry("negative index", "bus[-1]"),
	)

	DescribeTable("valid names",
		func(name string) {
			Expect(naming.Validate(name)).To(Succeed())
		},
		Entry("single", "clk"),
		Entry("snake case", "data_in"),
		Entry("hierarchy", "chain.s0"),
		Entry("indexed", "bus[7].bit[0]"),
	)

	It("should join names", func() {
		Expect(naming.Join("", "clk")).To(Equal("clk"))
		Expect(naming.Join("top", "clk")).To(Equal("top.clk"))
		Expect(naming.JoinIndex("top", "bus", 1, 2)).To(Equal("top.bus[1][2]"))
	})
})
