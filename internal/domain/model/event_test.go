package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/hltjet/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEventKey(t *testing.T) {
	convey.Convey("Given an event key", t, func() {
		key := model.EventKey{Run: 362616, Lumi: 41, Event: 98765432101}

		convey.Convey("When rendered and parsed back", func() {
			parsed, err := model.ParseEventKey(key.String())

			convey.Convey("Then it should round-trip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(parsed, convey.ShouldResemble, key)
				convey.So(key.String(), convey.ShouldEqual, "362616:41:98765432101")
			})
		})

		convey.Convey("When parsing malformed keys", func() {
			for _, s := range []string{"", "1:2", "a:2:3", "1:b:3", "1:2:c", "1:2:3:4", "-1:2:3"} {
				_, err := model.ParseEventKey(s)
				convey.So(errors.Is(err, model.ErrInvalidKey), convey.ShouldBeTrue)
			}
		})
	})
}

func TestEventCollections(t *testing.T) {
	convey.Convey("Given an event with labelled collections", t, func() {
		evt := &model.Event{
			EventKey: model.EventKey{Run: 1, Lumi: 1, Event: 1},
			Jets:     map[string][]model.Jet{"hltAK4CaloJets": {{}, {}}},
			Taus:     map[string][]model.Tau{"taus": {}},
			Hits:     map[string][]model.CellHit{"hltEcalRecHit:EcalRecHitsEB": {{Energy: 1}}},
		}

		convey.Convey("When reading present collections", func() {
			jets, err := evt.JetCollection("hltAK4CaloJets")
			convey.So(err, convey.ShouldBeNil)
			convey.So(jets, convey.ShouldHaveLength, 2)

			taus, err := evt.TauCollection("taus")
			convey.So(err, convey.ShouldBeNil)
			convey.So(taus, convey.ShouldBeEmpty)

			hits, err := evt.HitCollection("hltEcalRecHit:EcalRecHitsEB")
			convey.So(err, convey.ShouldBeNil)
			convey.So(hits, convey.ShouldHaveLength, 1)
		})

		convey.Convey("When reading a missing collection", func() {
			_, err := evt.HitCollection("hltEcalRecHit:EcalRecHitsEE")

			convey.Convey("Then it should report a missing product", func() {
				convey.So(errors.Is(err, model.ErrProductNotFound), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "EcalRecHitsEE")
			})
		})

		convey.Convey("When decoding an event from JSON", func() {
			raw := `{"run":5,"lumi":6,"event":7,"jets":{"j":[{"p4":{"pt":30,"eta":1,"phi":0.2,"mass":3}}]},` +
				`"hits":{"h":[{"detid":1,"energy":2.5,"time":0.3,"time_error":1,"flags":64}]}}`
			var decoded model.Event
			err := json.Unmarshal([]byte(raw), &decoded)

			convey.Convey("Then the key and collections are populated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(decoded.EventKey, convey.ShouldResemble, model.EventKey{Run: 5, Lumi: 6, Event: 7})
				convey.So(decoded.Jets["j"][0].P4.Pt, convey.ShouldEqual, 30)
				convey.So(decoded.Hits["h"][0].Flags.Has(model.FlagSaturated), convey.ShouldBeTrue)
			})
		})
	})
}

func TestCellFlags(t *testing.T) {
	convey.Convey("Given a set of cell flags", t, func() {
		flags := model.NewCellFlags(model.FlagWeird, model.FlagPoorReco)

		convey.Convey("Then membership is reported per flag", func() {
			convey.So(flags.Has(model.FlagWeird), convey.ShouldBeTrue)
			convey.So(flags.Has(model.FlagPoorReco), convey.ShouldBeTrue)
			convey.So(flags.Has(model.FlagSaturated), convey.ShouldBeFalse)
			convey.So(flags.Any(model.FlagSaturated, model.FlagWeird), convey.ShouldBeTrue)
			convey.So(flags.Any(model.FlagDead), convey.ShouldBeFalse)
			convey.So(flags.String(), convey.ShouldEqual, "poor_reco|weird")
		})

		convey.Convey("Then an empty set renders as empty", func() {
			convey.So(model.CellFlags(0).String(), convey.ShouldEqual, "")
		})
	})
}

func TestProducts(t *testing.T) {
	convey.Convey("Given a product set", t, func() {
		p := model.NewProducts(model.EventKey{Run: 1})
		p.PutFloats(model.ProductLabel("hltCaloJetTimingProducer", ""), []float32{1})
		p.PutCounts(model.ProductLabel("hltCaloJetTimingProducer", "jetCellsForTiming"), []uint32{2})
		p.PutJets("cleaned", nil)

		convey.So(p.Len(), convey.ShouldEqual, 3)
		convey.So(p.Floats, convey.ShouldContainKey, "hltCaloJetTimingProducer")
		convey.So(p.Counts, convey.ShouldContainKey, "hltCaloJetTimingProducer:jetCellsForTiming")
	})
}
