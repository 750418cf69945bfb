package teehistorian_test

import (
	"errors"
	"io"

	"github.com/bsm/teehistorian"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	const header = `{"version":"2","version_minor":"9"}`
	var customID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	parseError := func(err error) *teehistorian.ParseError {
		var perr *teehistorian.ParseError
		Expect(errors.As(err, &perr)).To(BeTrue(), "expected a ParseError, got %v", err)
		return perr
	}

	It("should validate the frame", func() {
		for name, data := range map[string][]byte{
			"empty":        nil,
			"short":        {0x00, 0x01, 0x02},
			"bad magic":    make([]byte, 32),
			"unterminated": append(append([]byte(nil), teehistorian.Magic[:]...), `{"a":"b"}`...),
			"array":        frame(`["a"]`),
			"invalid":      frame(`not json`),
			"blank":        frame(``),
		} {
			_, err := teehistorian.NewReader(data, nil)
			Expect(err).To(HaveOccurred(), "for %s", name)
			Expect(teehistorian.IsValidation(err)).To(BeTrue(), "for %s", name)
		}

		_, err := teehistorian.NewReader(nil, nil)
		Expect(err).To(MatchError(`teehistorian: empty buffer`))
	})

	It("should expose the header", func() {
		data := frame(`{"version":"2","port":8303}`)
		r, err := teehistorian.NewReader(data, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(r.RawHeader())).To(Equal(`{"version":"2","port":8303}`))
		Expect(r.HeaderSize()).To(Equal(len(data)))
		Expect(r.Offset()).To(Equal(len(data)))
		Expect(r.Header().Fields()).To(Equal([]teehistorian.HeaderField{
			{Key: "version", Value: "2"},
			{Key: "port", Value: "8303", Raw: true},
		}))
	})

	It("should decode the scenario", func() {
		r, err := teehistorian.NewReader(encode(scenario...), nil)
		Expect(err).NotTo(HaveOccurred())

		chunks, err := r.ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(Equal(append(scenario, teehistorian.Eos{})))
		Expect(r.ChunkCount()).To(Equal(7))
		Expect(r.End()).To(Equal(teehistorian.EndEos))
		Expect(r.Trailing()).To(Equal(0))
	})

	It("should decode raw chunks", func() {
		data := stream(header,
			packInts(-8, 3),                  // join
			packInts(3, -1, 5),               // player diff
			packInts(-2, 0),                  // tick skip
			packInts(-7, 3, 2), []byte("hi"), // net message
			packInts(-10, 3, 1), []byte("say\x00"), packInts(2), []byte("a\x00b\x00"),
			packInts(-9, 3), []byte("timeout\x00"),
			packInts(-1),
		)
		Expect(decode(data, nil)).To(Equal([]teehistorian.Chunk{
			teehistorian.Join{ClientID: 3},
			teehistorian.PlayerDiff{ClientID: 3, DX: -1, DY: 5},
			teehistorian.TickSkip{DT: 0},
			teehistorian.NetMessage{ClientID: 3, Msg: []byte("hi")},
			teehistorian.ConsoleCommand{ClientID: 3, Flags: 1, Cmd: "say", Args: []string{"a", "b"}},
			teehistorian.Drop{ClientID: 3, Reason: "timeout"},
			teehistorian.Eos{},
		}))
	})

	It("should report out-of-range client IDs as recorded", func() {
		Expect(decode(stream(header, packInts(-8, 200)), nil)).To(Equal([]teehistorian.Chunk{
			teehistorian.Join{ClientID: 200},
		}))
	})

	It("should stop at eos", func() {
		r, err := teehistorian.NewReader(stream(header, packInts(-8, 0, -1), []byte{1, 2, 3}), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ReadAll()).To(HaveLen(2))
		Expect(r.End()).To(Equal(teehistorian.EndEos))
		Expect(r.Trailing()).To(Equal(3))

		_, err = r.ReadChunk()
		Expect(err).To(Equal(io.EOF))
	})

	It("should end on exhaustion", func() {
		r, err := teehistorian.NewReader(stream(header, packInts(-8, 0)), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.End()).To(Equal(teehistorian.EndNone))

		c, err := r.ReadChunk()
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(teehistorian.Join{ClientID: 0}))

		_, err = r.ReadChunk()
		Expect(err).To(Equal(io.EOF))
		_, err = r.ReadChunk()
		Expect(err).To(Equal(io.EOF))
		Expect(r.End()).To(Equal(teehistorian.EndExhausted))
		Expect(r.Trailing()).To(Equal(0))
		Expect(r.Err()).NotTo(HaveOccurred())
	})

	It("should iterate", func() {
		r, err := teehistorian.NewReader(encode(scenario...), nil)
		Expect(err).NotTo(HaveOccurred())

		var kinds []teehistorian.Kind
		for r.Next() {
			kinds = append(kinds, r.Chunk().Kind())
		}
		Expect(r.Err()).NotTo(HaveOccurred())
		Expect(kinds).To(Equal([]teehistorian.Kind{
			teehistorian.KindJoin,
			teehistorian.KindPlayerName,
			teehistorian.KindPlayerNew,
			teehistorian.KindTickSkip,
			teehistorian.KindPlayerOld,
			teehistorian.KindDrop,
			teehistorian.KindEos,
		}))
		Expect(r.Next()).To(BeFalse())
	})

	It("should fail on unknown tags", func() {
		r, err := teehistorian.NewReader(stream(header, packInts(-8, 0, -12, 0)), nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = r.ReadChunk()
		Expect(err).NotTo(HaveOccurred())

		_, err = r.ReadChunk()
		perr := parseError(err)
		Expect(perr.Offset).To(Equal(r.HeaderSize() + 2))
		Expect(perr.Tag).To(Equal(int32(-12)))
		Expect(err).To(MatchError(MatchRegexp(`teehistorian: parse error at offset \d+ \(tag -12\): teehistorian: unknown chunk tag`)))

		// sticky
		_, err2 := r.ReadChunk()
		Expect(err2).To(Equal(err))
		Expect(r.Next()).To(BeFalse())
		Expect(r.Err()).To(Equal(err))
		Expect(r.ChunkCount()).To(Equal(1))
	})

	It("should fail on truncated extensions", func() {
		data := stream(header, packInts(-8, 0), packInts(-11), customID[:8])
		r, err := teehistorian.NewReader(data, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = r.ReadAll()
		perr := parseError(err)
		Expect(perr.Offset).To(Equal(r.HeaderSize() + 2))
		Expect(perr.Tag).To(Equal(int32(-11)))
		Expect(errors.Is(err, io.ErrUnexpectedEOF)).To(BeTrue())
		Expect(r.ChunkCount()).To(Equal(1))
	})

	It("should fail on truncated payloads", func() {
		for name, chunk := range map[string][]byte{
			"net message": append(packInts(-7, 0, 10), "hi"...),
			"player new":  packInts(-3, 0, 1),
			"input":       packInts(-6, 0, 1, 2, 3),
			"drop":        append(packInts(-9, 0), "quit"...),
			"extension":   append(exChunk(customID, []byte("abcd"))[:20], 'x'),
		} {
			r, err := teehistorian.NewReader(stream(header, chunk), nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = r.ReadChunk()
			Expect(parseError(err).Offset).To(Equal(r.HeaderSize()), "for %s", name)
			Expect(r.ChunkCount()).To(Equal(0), "for %s", name)
		}
	})

	It("should fail on overlong varints", func() {
		r, err := teehistorian.NewReader(stream(header, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}), nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = r.ReadChunk()
		Expect(errors.Is(err, teehistorian.ErrVarintOverlong)).To(BeTrue())
	})

	It("should fail on negative lengths", func() {
		r, err := teehistorian.NewReader(stream(header, packInts(-7, 0, -1)), nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = r.ReadChunk()
		Expect(errors.Is(err, teehistorian.ErrNegativeLength)).To(BeTrue())
	})

	Describe("extensions", func() {
		It("should decode unknown", func() {
			data := stream(header, exChunk(customID, []byte{1, 2, 3}))
			Expect(decode(data, nil)).To(Equal([]teehistorian.Chunk{
				teehistorian.Unknown{UUID: customID, Data: []byte{1, 2, 3}},
			}))
		})

		It("should decode registered", func() {
			reg := teehistorian.NewRegistry()
			Expect(reg.Register(customID.String(), "my-mod")).To(Succeed())

			data := stream(header, exChunk(customID, []byte{1, 2, 3}))
			Expect(decode(data, &teehistorian.ReaderOptions{Registry: reg})).To(Equal([]teehistorian.Chunk{
				teehistorian.CustomChunk{UUID: customID, Data: []byte{1, 2, 3}, HandlerName: "my-mod"},
			}))
		})

		It("should apply registrations to subsequent chunks", func() {
			chunk := exChunk(customID, []byte{7})
			r, err := teehistorian.NewReader(stream(header, chunk, chunk), nil)
			Expect(err).NotTo(HaveOccurred())

			c, err := r.ReadChunk()
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Kind()).To(Equal(teehistorian.KindUnknown))

			Expect(r.Register(customID.String(), "late")).To(Succeed())
			c, err = r.ReadChunk()
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(teehistorian.CustomChunk{UUID: customID, Data: []byte{7}, HandlerName: "late"}))
		})

		It("should scope registrations to the reader", func() {
			reg := teehistorian.NewRegistry()
			data := stream(header, exChunk(customID, nil))

			r1, err := teehistorian.NewReader(data, &teehistorian.ReaderOptions{Registry: reg})
			Expect(err).NotTo(HaveOccurred())
			Expect(r1.Register(customID.String(), "one")).To(Succeed())

			r2, err := teehistorian.NewReader(data, &teehistorian.ReaderOptions{Registry: reg})
			Expect(err).NotTo(HaveOccurred())
			c, err := r2.ReadChunk()
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(teehistorian.Unknown{UUID: customID}))
			Expect(reg.Len()).To(Equal(0))
		})

		It("should prefer registrations over well-known UUIDs", func() {
			reg := teehistorian.NewRegistry()
			Expect(reg.Register(teehistorian.UUIDPlayerName.String(), "names")).To(Succeed())

			payload := append(packInts(1), "bob\x00"...)
			data := stream(header, exChunk(teehistorian.UUIDPlayerName, payload))
			Expect(decode(data, &teehistorian.ReaderOptions{Registry: reg})).To(Equal([]teehistorian.Chunk{
				teehistorian.CustomChunk{UUID: teehistorian.UUIDPlayerName, Data: payload, HandlerName: "names"},
			}))
		})

		It("should decode well-known", func() {
			saveID := uuid.MustParse("00000000-0000-0000-0000-0000000000ff")
			data := stream(header,
				exChunk(teehistorian.UUIDJoinVer6, packInts(1)),
				exChunk(teehistorian.UUIDPlayerTeam, packInts(1, 3)),
				exChunk(teehistorian.UUIDPlayerName, append(packInts(1), "bob\x00"...)),
				exChunk(teehistorian.UUIDAuthLogin, append(packInts(1, 2), "admin\x00"...)),
				exChunk(teehistorian.UUIDTeamLoadSuccess, append(append(packInts(3), saveID[:]...), "code\x00"...)),
				exChunk(teehistorian.UUIDAntiBot, []byte{9, 8}),
			)
			Expect(decode(data, nil)).To(Equal([]teehistorian.Chunk{
				teehistorian.JoinVer6{ClientID: 1},
				teehistorian.PlayerTeam{ClientID: 1, Team: 3},
				teehistorian.PlayerName{ClientID: 1, Name: "bob"},
				teehistorian.AuthLogin{ClientID: 1, Level: 2, AuthName: "admin"},
				teehistorian.TeamLoadSuccess{Team: 3, SaveID: saveID, Save: "code"},
				teehistorian.AntiBot{Data: []byte{9, 8}},
			}))
		})

		It("should degrade broken well-known payloads", func() {
			broken := append(packInts(1), "bob"...)
			trailing := packInts(1, 2)
			data := stream(header,
				exChunk(teehistorian.UUIDPlayerName, broken),
				exChunk(teehistorian.UUIDJoinVer6, trailing),
				packInts(-8, 1),
			)

			chunks := decode(data, nil)
			Expect(chunks).To(HaveLen(3))
			Expect(chunks[0]).To(Equal(teehistorian.Generic{
				UUID:        teehistorian.UUIDPlayerName,
				Data:        broken,
				Description: "PlayerName: teehistorian: unterminated string",
			}))
			Expect(chunks[1]).To(Equal(teehistorian.Generic{
				UUID:        teehistorian.UUIDJoinVer6,
				Data:        trailing,
				Description: "JoinVer6: teehistorian: trailing data in extension payload",
			}))
			Expect(chunks[2]).To(Equal(teehistorian.Join{ClientID: 1}))
		})
	})
})
