package teehistorian_test

import (
	"github.com/bsm/teehistorian"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Header", func() {
	It("should keep insertion order", func() {
		h := teehistorian.NewHeader(
			teehistorian.HeaderField{Key: "b", Value: "1"},
			teehistorian.HeaderField{Key: "a", Value: "2"},
		)
		h.Set("c", "3")
		h.Set("b", "4")
		Expect(h.Keys()).To(Equal([]string{"b", "a", "c"}))
		Expect(h.Len()).To(Equal(3))
		v, _ := h.Get("b")
		Expect(v).To(Equal("4"))

		_, ok := h.Get("x")
		Expect(ok).To(BeFalse())
	})

	It("should encode", func() {
		h := teehistorian.NewHeader()
		h.Set("game_uuid", "00000000-0000-0000-0000-000000000000")
		h.Set("config", `{"sv_name":"x"}`)
		h.Set("list", `[1, 2]`)
		h.Set("broken", `{"sv_name":`)
		h.Set("quoted", `say "hi"`)
		Expect(h.SetRaw("port", "8303")).To(Succeed())

		js, err := h.MarshalJSON()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(js)).To(Equal(`{"game_uuid":"00000000-0000-0000-0000-000000000000","config":{"sv_name":"x"},"list":[1, 2],"broken":"{\"sv_name\":","quoted":"say \"hi\"","port":8303}`))
	})

	It("should accept raw scalars", func() {
		h := teehistorian.NewHeader()
		for _, s := range []string{"8303", "-1.5", "1e3", "true", "null", `"x"`} {
			Expect(h.SetRaw("v", s)).To(Succeed(), "for %q", s)
			Expect(h.MarshalJSON()).To(MatchJSON(`{"v":` + s + `}`), "for %q", s)
		}
	})

	It("should reject invalid raw values", func() {
		h := teehistorian.NewHeader()
		for _, s := range []string{`{"a":`, "", "nope", "[1"} {
			err := h.SetRaw("port", s)
			Expect(teehistorian.IsValidation(err)).To(BeTrue(), "for %q", s)
		}
		Expect(h.Len()).To(Equal(0))
	})

	It("should quote invalid raw fields", func() {
		h := teehistorian.NewHeader(teehistorian.HeaderField{Key: "config", Value: "not json", Raw: true})
		Expect(h.MarshalJSON()).To(Equal([]byte(`{"config":"not json"}`)))
	})

	It("should mark compound values as raw", func() {
		h := teehistorian.NewHeader(teehistorian.HeaderField{Key: "uuids", Value: `["a"]`})
		h.Set("note", "[1]")
		h.Set("plain", "[1")
		Expect(h.Fields()).To(Equal([]teehistorian.HeaderField{
			{Key: "uuids", Value: `["a"]`, Raw: true},
			{Key: "note", Value: "[1]", Raw: true},
			{Key: "plain", Value: "[1"},
		}))

		js, err := h.MarshalJSON()
		Expect(err).NotTo(HaveOccurred())
		parsed, err := teehistorian.ParseHeader(js)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Fields()).To(Equal(h.Fields()))
	})

	It("should keep decoded strings quoted", func() {
		src := `{"note":"[1]","config":"{}"}`
		h, err := teehistorian.ParseHeader([]byte(src))
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Fields()).To(Equal([]teehistorian.HeaderField{
			{Key: "note", Value: "[1]"},
			{Key: "config", Value: "{}"},
		}))
		Expect(h.MarshalJSON()).To(Equal([]byte(src)))
	})

	It("should parse", func() {
		h, err := teehistorian.ParseHeader([]byte(`{"version":"2","esc":"a\"bä","port":8303,"config":{"a":"b"},"flag":true,"none":null}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Fields()).To(Equal([]teehistorian.HeaderField{
			{Key: "version", Value: "2"},
			{Key: "esc", Value: "a\"bä"},
			{Key: "port", Value: "8303", Raw: true},
			{Key: "config", Value: `{"a":"b"}`, Raw: true},
			{Key: "flag", Value: "true", Raw: true},
			{Key: "none", Value: "null", Raw: true},
		}))
	})

	It("should round-trip", func() {
		src := `{"version":"2","port":8303,"config":{"a":"b"}}`
		h, err := teehistorian.ParseHeader([]byte(src))
		Expect(err).NotTo(HaveOccurred())
		Expect(h.MarshalJSON()).To(MatchJSON(src))
	})

	It("should reject non-objects", func() {
		for _, s := range []string{``, `[]`, `"x"`, `{"a":`, `{"a" 1}`} {
			_, err := teehistorian.ParseHeader([]byte(s))
			Expect(teehistorian.IsValidation(err)).To(BeTrue(), "for %q", s)
		}
	})

	It("should clone", func() {
		h := teehistorian.NewHeader(teehistorian.HeaderField{Key: "a", Value: "1"})
		c := h.Clone()
		c.Set("a", "2")
		v, _ := h.Get("a")
		Expect(v).To(Equal("1"))
	})
})
