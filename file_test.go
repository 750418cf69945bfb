package teehistorian_test

import (
	"errors"

	"github.com/bsm/teehistorian"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

var _ = Describe("File", func() {
	var fs afero.Fs

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
	})

	It("should write and read", func() {
		for _, c := range []teehistorian.Compression{
			teehistorian.NoCompression,
			teehistorian.SnappyCompression,
			teehistorian.GzipCompression,
			teehistorian.ZstdCompression,
		} {
			w := teehistorian.NewWriter(nil)
			Expect(w.WriteAll(scenario...)).To(Succeed())
			Expect(w.Close()).To(Succeed())
			Expect(teehistorian.WriteFile(fs, "/data/game.teehistorian", w, c)).To(Succeed(), "for %s", c)

			r, err := teehistorian.OpenFile(fs, "/data/game.teehistorian", nil)
			Expect(err).NotTo(HaveOccurred(), "for %s", c)
			Expect(r.ReadAll()).To(Equal(append(scenario, teehistorian.Eos{})), "for %s", c)
		}
	})

	It("should create files", func() {
		Expect(teehistorian.CreateFile(fs, "game.th", nil, teehistorian.GzipCompression, func(w *teehistorian.Writer) error {
			if err := w.SetHeader("map_name", "Multeasymap"); err != nil {
				return err
			}
			return w.WriteAll(scenario...)
		})).To(Succeed())

		data, err := teehistorian.ReadFile(fs, "game.th")
		Expect(err).NotTo(HaveOccurred())

		r, err := teehistorian.NewReader(data, nil)
		Expect(err).NotTo(HaveOccurred())
		v, _ := r.Header().Get("map_name")
		Expect(v).To(Equal("Multeasymap"))
		Expect(r.ReadAll()).To(HaveLen(7))
	})

	It("should not leave files on failure", func() {
		err := teehistorian.CreateFile(fs, "game.th", nil, teehistorian.NoCompression, func(w *teehistorian.Writer) error {
			return errors.New("boom")
		})
		Expect(err).To(MatchError("boom"))

		exists, err := afero.Exists(fs, "game.th")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	It("should wrap I/O errors", func() {
		_, err := teehistorian.ReadFile(fs, "missing.th")
		Expect(err).To(MatchError(MatchRegexp(`^teehistorian: read missing.th: `)))

		var ferr *teehistorian.FileError
		Expect(errors.As(err, &ferr)).To(BeTrue())
		Expect(ferr.Op).To(Equal("read"))
		Expect(ferr.Path).To(Equal("missing.th"))

		ro := afero.NewReadOnlyFs(fs)
		err = teehistorian.WriteFile(ro, "x.th", teehistorian.NewWriter(nil), teehistorian.NoCompression)
		Expect(errors.As(err, &ferr)).To(BeTrue())
		Expect(ferr.Op).To(Equal("create"))
	})

	It("should validate file contents", func() {
		Expect(afero.WriteFile(fs, "bad.th", []byte("garbage"), 0o644)).To(Succeed())
		_, err := teehistorian.OpenFile(fs, "bad.th", nil)
		Expect(teehistorian.IsValidation(err)).To(BeTrue())
	})
})
