package teehistorian_test

import (
	"github.com/bsm/teehistorian"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	const id1 = "00000000-0000-0000-0000-0000000000a1"
	const id2 = "00000000-0000-0000-0000-0000000000a2"

	var subject *teehistorian.Registry

	BeforeEach(func() {
		subject = teehistorian.NewRegistry()
	})

	It("should register", func() {
		Expect(subject.Register(id2, "b")).To(Succeed())
		Expect(subject.Register("00000000-0000-0000-0000-0000000000A1", "a")).To(Succeed())
		Expect(subject.Len()).To(Equal(2))
		Expect(subject.Registered()).To(Equal([]string{id1, id2}))

		u, err := teehistorian.ParseUUID(id1)
		Expect(err).NotTo(HaveOccurred())
		name, ok := subject.Lookup(u)
		Expect(ok).To(BeTrue())
		Expect(name).To(Equal("a"))
	})

	It("should overwrite", func() {
		Expect(subject.Register(id1, "a")).To(Succeed())
		Expect(subject.Register(id1, "b")).To(Succeed())
		Expect(subject.Len()).To(Equal(1))

		u, _ := teehistorian.ParseUUID(id1)
		name, _ := subject.Lookup(u)
		Expect(name).To(Equal("b"))
	})

	It("should reject malformed UUIDs", func() {
		Expect(subject.Register(id1, "a")).To(Succeed())

		err := subject.Register("not-a-uuid", "x")
		Expect(err).To(HaveOccurred())
		Expect(teehistorian.IsValidation(err)).To(BeTrue())
		Expect(subject.Registered()).To(Equal([]string{id1}))
	})

	It("should miss", func() {
		_, ok := subject.Lookup(teehistorian.Magic)
		Expect(ok).To(BeFalse())

		var nilReg *teehistorian.Registry
		_, ok = nilReg.Lookup(teehistorian.Magic)
		Expect(ok).To(BeFalse())
		Expect(nilReg.Len()).To(Equal(0))
	})

	It("should clone", func() {
		Expect(subject.Register(id1, "a")).To(Succeed())

		clone := subject.Clone()
		Expect(clone.Register(id2, "b")).To(Succeed())
		Expect(subject.Registered()).To(Equal([]string{id1}))
		Expect(clone.Registered()).To(Equal([]string{id1, id2}))
	})
})
